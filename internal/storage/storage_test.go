package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"parking-ledger/internal/parking"
)

func TestEncodeDecode(t *testing.T) {
	l, err := parking.NewLedger(parking.Config{})
	require.NoError(t, err)
	_, err = l.Park("ka01", parking.Truck)
	require.NoError(t, err)

	data, err := Encode(l.Snapshot())
	require.NoError(t, err)

	snap, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, l.Snapshot(), snap)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	require.ErrorIs(t, err, ErrMalformed)
}
