package test_utils

import (
	"context"

	"github.com/wayplan/wayplan/pkg/user"
)

// TestUser is the fixed signed-in user used across store and service tests.
var TestUser = user.User{
	Id:          "11111111-1111-4111-8111-111111111111",
	Email:       "test@wayplan.dev",
	DisplayName: "Test User",
}

// ContextWithTestUser returns a context carrying TestUser, mirroring what the
// X-User-Id middleware does for real requests.
func ContextWithTestUser() context.Context {
	return user.WithUser(context.Background(), TestUser)
}
