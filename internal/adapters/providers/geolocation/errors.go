package geolocation

import (
	"context"
	"errors"
	"net"

	apperrors "github.com/mahmoodhamdi/lg-branchs/pkg/errors"
)

// classify maps a failed position request onto the location error kinds
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsLocationError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewLocationError(apperrors.ErrorTypeLocationTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewLocationError(apperrors.ErrorTypeLocationTimeout, err)
	}
	return apperrors.NewLocationError(apperrors.ErrorTypeLocationUnavailable, err)
}
