package avatar

import "context"

// Store persists normalized avatar PNGs keyed by user id. Implementations
// return common.ErrNotFound when no avatar is stored for the user.
type Store interface {
	// Set stores the PNG bytes for userID, replacing any previous avatar.
	Set(ctx context.Context, userID string, png []byte) error

	// Get returns the stored PNG bytes for userID.
	Get(ctx context.Context, userID string) ([]byte, error)

	// Delete clears the stored avatar. Clearing an absent avatar is not an
	// error, but an unknown user is.
	Delete(ctx context.Context, userID string) error
}
