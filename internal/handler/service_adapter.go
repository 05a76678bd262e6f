package handler

import (
	"github.com/hitoshi/eduportal/internal/access"
	"github.com/hitoshi/eduportal/internal/auth"
	"github.com/hitoshi/eduportal/internal/backend"
	"github.com/hitoshi/eduportal/internal/reference"
	"github.com/hitoshi/eduportal/internal/subscription"
	"github.com/hitoshi/eduportal/internal/user"
)

// NewUserClientFactory は backend.Client を user.ClientFactory に適合させる。
// 返されるクライアントはセッションのトークンをBearerとして付与する。
func NewUserClientFactory(client *backend.Client) user.ClientFactory {
	return func(token string) user.UserAPI {
		return client.WithToken(token)
	}
}

// NewSubscriptionClientFactory は backend.Client を subscription.ClientFactory に適合させる。
func NewSubscriptionClientFactory(client *backend.Client) subscription.ClientFactory {
	return func(token string) subscription.SubscriptionAPI {
		return client.WithToken(token)
	}
}

// --- compile-time interface checks ---

var _ AuthServiceInterface = (*auth.Service)(nil)
var _ SessionTerminator = (*auth.Service)(nil)
var _ AccessServiceInterface = (*access.Service)(nil)
var _ ProfileServiceInterface = (*user.Service)(nil)
var _ SubscriptionServiceInterface = (*subscription.Service)(nil)
var _ ReferenceServiceInterface = (*reference.Service)(nil)
var _ access.ProfileSource = (*user.Service)(nil)
var _ access.SubscriptionSource = (*subscription.Service)(nil)
var _ auth.BackendAuth = (*backend.Client)(nil)
var _ reference.ReferenceAPI = (*backend.Client)(nil)
