package profile

import "context"

// Repo stores edit sessions. Sessions are transient by design: losing them
// costs a re-open, never data, since the document is the durable store.
type Repo interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}
