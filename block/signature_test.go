package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TTCRadio/gnuradio/errors"
)

func TestSignatureElemSizeRepeats(t *testing.T) {
	s := NewSignature(1, MaxUnbounded, 8, 4)

	assert.Equal(t, 8, s.ElemSize(0))
	assert.Equal(t, 4, s.ElemSize(1))
	assert.Equal(t, 4, s.ElemSize(5), "last size repeats for higher indexes")
	assert.Equal(t, 0, NullSignature().ElemSize(0))
}

func TestSignatureValidate(t *testing.T) {
	assert.NoError(t, NewSignature(1, 4, 8).Validate())
	assert.NoError(t, NewSignature(2, MaxUnbounded, 8).Validate())
	assert.NoError(t, NullSignature().Validate())

	assert.Error(t, NewSignature(-1, 2, 8).Validate())
	assert.Error(t, NewSignature(3, 2, 8).Validate())
	assert.Error(t, NewSignature(1, 2).Validate(), "streams declared but no element sizes")
	assert.Error(t, NewSignature(1, 1, 0).Validate())
}

func TestSignatureCheckCount(t *testing.T) {
	s := NewSignature(2, 4, 8)

	assert.NoError(t, s.CheckCount(2))
	assert.NoError(t, s.CheckCount(4))

	err := s.CheckCount(1)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrStreamCountOutOfRange)
	assert.True(t, errors.IsConstruction(err))

	assert.Error(t, s.CheckCount(5))

	unbounded := NewSignature(1, MaxUnbounded, 8)
	assert.NoError(t, unbounded.CheckCount(100))
}

func TestRatioMath(t *testing.T) {
	dec := DecimateBy(4)
	assert.Equal(t, 8, dec.InputItems(2))
	assert.Equal(t, 2, dec.OutputItems(11), "partial quantum rounds down")
	assert.Equal(t, 3, dec.AlignOutput(3))

	interp := InterpolateBy(3)
	assert.Equal(t, 2, interp.InputItems(6))
	assert.Equal(t, 6, interp.OutputItems(2))
	assert.Equal(t, 6, interp.AlignOutput(7), "output aligns to interpolation multiple")

	one := OneToOne()
	assert.Equal(t, 5, one.InputItems(5))
	assert.Equal(t, "1:1", one.String())
}

func TestRatioValidate(t *testing.T) {
	assert.NoError(t, OneToOne().Validate())
	assert.Error(t, Ratio{Interp: 0, Decim: 1}.Validate())
	assert.Error(t, Ratio{Interp: 1, Decim: -2}.Validate())
}
