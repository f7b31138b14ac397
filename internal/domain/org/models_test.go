package org

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	d := Department{Name: "  Finance "}
	require.NoError(t, d.Normalize())
	assert.Equal(t, "Finance", d.Name)
	assert.ErrorIs(t, (&Department{Name: "  "}).Normalize(), ErrNameRequired)

	p := Position{NameID: "Staf", BaseSalary: -1}
	assert.ErrorIs(t, p.Normalize(), ErrNegativePay)
	assert.ErrorIs(t, (&Position{}).Normalize(), ErrNameRequired)

	b := Bank{Name: "Bank Central Asia", Code: " bca "}
	require.NoError(t, b.Normalize())
	assert.Equal(t, "BCA", b.Code)
}

func TestAffected(t *testing.T) {
	err := affected(pgconnTag(0), nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, affected(pgconnTag(1), nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, affected(pgconnTag(1), boom), boom)
}
