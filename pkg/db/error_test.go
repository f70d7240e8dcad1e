package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"gorm wrapped", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"postgres code", &pgconn.PgError{Code: "23505"}, true},
		{"postgres message", errors.New(`ERROR: duplicate key value violates unique constraint "ux_billing_record_day"`), true},
		{"mysql", errors.New("Error 1062 (23000): Duplicate entry"), true},
		{"sqlite", errors.New("constraint failed: UNIQUE constraint failed: billing_records.merchant_id"), true},
		{"other pg code", &pgconn.PgError{Code: "23503"}, false},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDuplicateKeyErr(tc.err))
		})
	}
}
