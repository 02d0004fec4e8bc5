package validate_test

import (
	"testing"

	"github.com/budlum/blockchain/business/sys/validate"
)

type newTx struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
	Amount uint64 `json:"amount" validate:"gt=0"`
}

func Test_Check(t *testing.T) {
	if err := validate.Check(newTx{From: "alice", To: "bob", Amount: 5}); err != nil {
		t.Fatalf("Should accept a complete value: %v", err)
	}

	err := validate.Check(newTx{From: "alice"})
	if !validate.IsFieldErrors(err) {
		t.Fatalf("Should get field errors, got %v.", err)
	}

	fields := validate.GetFieldErrors(err).Fields()
	if _, exists := fields["to"]; !exists {
		t.Fatalf("Should report the json name of the missing field, got %v.", fields)
	}
	if _, exists := fields["amount"]; !exists {
		t.Fatalf("Should report the zero amount, got %v.", fields)
	}
	if len(fields) != 2 {
		t.Fatalf("Should report two fields, got %v.", fields)
	}
}
