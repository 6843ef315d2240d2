package formz

import (
	"context"
	"errors"
)

// Updater is anything that accepts raw values, such as a *Field[T].
type Updater interface {
	Update(raw any) error
}

// Feed pumps values into target until values is closed or ctx is done.
// Coercion failures do not stop the feed; they are joined and returned.
// A cancelled ctx returns ctx.Err() joined with any coercion failures.
func Feed(ctx context.Context, target Updater, values <-chan any) error {
	var errs []error
	for {
		select {
		case <-ctx.Done():
			return errors.Join(append(errs, ctx.Err())...)
		case v, ok := <-values:
			if !ok {
				return errors.Join(errs...)
			}
			if err := target.Update(v); err != nil {
				errs = append(errs, err)
			}
		}
	}
}
