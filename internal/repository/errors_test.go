package repository

import (
	"errors"
	"testing"
)

func TestIsDuplicate(t *testing.T) {
	dup := errors.New("Error 1062 (23000): Duplicate entry 'a@example.com' for key 'users.email'")
	if !isDuplicate(dup) {
		t.Error("duplicate-key error not recognised")
	}
	if isDuplicate(errors.New("Error 1452: foreign key constraint fails")) {
		t.Error("foreign-key error misclassified as duplicate")
	}
	if isDuplicate(nil) {
		t.Error("nil error misclassified as duplicate")
	}
}
