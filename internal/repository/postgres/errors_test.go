package postgres

import (
	"errors"
	"testing"

	"github.com/lib/pq"

	"culturaviva/internal/repository"
)

func TestMapWriteError(t *testing.T) {
	t.Parallel()

	other := errors.New("connection reset")
	testCases := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "unique violation", err: &pq.Error{Code: "23505"}, want: repository.ErrConflict},
		{name: "foreign key violation", err: &pq.Error{Code: "23503"}},
		{name: "other", err: other, want: other},
	}

	for _, tc := range testCases {
		got := mapWriteError(tc.err)
		if tc.want == nil && tc.err == nil && got != nil {
			t.Errorf("%s: got %v, want nil", tc.name, got)
			continue
		}
		if tc.want != nil && !errors.Is(got, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
		if tc.name == "foreign key violation" && errors.Is(got, repository.ErrConflict) {
			t.Errorf("%s: mapped to conflict", tc.name)
		}
	}
}

func TestMarshalElements_NilIsEmptyArray(t *testing.T) {
	t.Parallel()

	b, err := marshalElements(nil)
	if err != nil {
		t.Fatalf("marshalElements() error = %v", err)
	}
	if string(b) != "[]" {
		t.Errorf("marshalElements(nil) = %s, want []", b)
	}
}
