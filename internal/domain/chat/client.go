package chat

import "context"

// Replier delivers the replies of one turn, addressed by the event's reply token.
// This keeps the application independent from the transport library.
type Replier interface {
	Reply(ctx context.Context, replyToken string, msgs ...Message) error
}
