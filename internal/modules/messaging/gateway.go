package messaging

import "context"

// Visibility controls who can read a channel when it is created.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// PermissionPolicy is applied to a single subject (user) on a channel.
type PermissionPolicy string

const (
	PermissionReadWrite PermissionPolicy = "read-write"
	PermissionNone      PermissionPolicy = "none"
)

// Message is the unit of content pushed to the chat platform. Title is
// optional and rendered as an embed header by the gateway.
type Message struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
}

func Text(body string) Message {
	return Message{Body: body}
}

// Gateway is the chat-platform collaborator. Delivery confirmation beyond
// call completion is never assumed, and failed sends are not retried.
type Gateway interface {
	SendMessage(ctx context.Context, channelRef string, message Message) error
	CreateChannel(ctx context.Context, communityRef, name string, visibility Visibility) (string, error)
	DeleteChannel(ctx context.Context, channelRef string) error
	SetPermissions(ctx context.Context, channelRef, subjectRef string, policy PermissionPolicy) error
}
