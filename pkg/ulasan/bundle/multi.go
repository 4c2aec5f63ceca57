package bundle

import (
	"context"
	"errors"
)

// MultiStore saves to every store and loads from the first that succeeds.
type MultiStore []Store

// Save implements Store.
func (m MultiStore) Save(ctx context.Context, b *Bundle) error {
	for _, s := range m {
		if err := s.Save(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// Load implements Store.
func (m MultiStore) Load(ctx context.Context, runID string) (*Bundle, error) {
	var errs []error
	for _, s := range m {
		b, err := s.Load(ctx, runID)
		if err == nil {
			return b, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no bundle stores configured")
	}
	return nil, errors.Join(errs...)
}

// Close implements Store.
func (m MultiStore) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
