package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTxKind(t *testing.T) {
	for _, kind := range []TxKind{TxDeposit, TxWithdrawal, TxDispute, TxResolve, TxChargeback} {
		t.Run(kind.String(), func(t *testing.T) {
			parsed, err := ParseTxKind(kind.String())
			require.NoError(t, err)
			assert.Equal(t, kind, parsed)
		})
	}

	_, err := ParseTxKind("Deposit")
	assert.Error(t, err)
	_, err = ParseTxKind("refund")
	assert.Error(t, err)
}

func TestTxKind_CarriesAmount(t *testing.T) {
	assert.True(t, TxDeposit.CarriesAmount())
	assert.True(t, TxWithdrawal.CarriesAmount())
	assert.False(t, TxDispute.CarriesAmount())
	assert.False(t, TxResolve.CarriesAmount())
	assert.False(t, TxChargeback.CarriesAmount())
}

func TestTx_String(t *testing.T) {
	assert.Equal(t, "deposit C:1 T:7 amount: 1.5000", NewDeposit(1, 7, MustPositiveAmount("1.5")).String())
	assert.Equal(t, "chargeback C:2 T:9", NewChargeback(2, 9).String())
}

func TestParseIDs(t *testing.T) {
	c, err := ParseClientID("65535")
	require.NoError(t, err)
	assert.Equal(t, ClientID(65535), c)

	_, err = ParseClientID("65536")
	assert.Error(t, err)

	id, err := ParseTxID("4294967295")
	require.NoError(t, err)
	assert.Equal(t, TxID(4294967295), id)

	_, err = ParseTxID("-1")
	assert.Error(t, err)
}
