package repository

import (
	"database/sql"
	"errors"
)

// HandleNotFound converts sql.ErrNoRows into a nil result without error.
// Find* methods return (nil, nil) for a missing row; callers decide whether
// that is a 404 or fine.
//
//	var user model.User
//	err := r.db.GetContext(ctx, &user, query, args...)
//	return HandleNotFound(&user, err)
func HandleNotFound[T any](result *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
