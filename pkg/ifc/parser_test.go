package ifc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-ifcview/pkg/ifc"
)

func TestParseHouse(t *testing.T) {
	t.Parallel()

	file, err := ifc.Parse(context.Background(), fixture(t, "house.ifc"))
	require.NoError(t, err)

	assert.Equal(t, "IFC4", file.Schema)
	assert.Equal(t, "house.ifc", file.Name)
	assert.Len(t, file.All(), 36)
	require.Len(t, file.ByType("IFCWALL"), 1)

	wall := file.Get(26)
	require.NotNil(t, wall)
	assert.Equal(t, "IFCWALL", wall.Type)
	assert.Equal(t, 26, wall.ID)
	assert.Equal(t, "2O2Fr$t4X7Zf8NOew3FLOH", wall.Arg(0).Str)
	assert.Equal(t, "Wall 'North'", wall.Arg(2).Str)
	assert.Equal(t, ifc.KindNull, wall.Arg(1).Kind)
	assert.Equal(t, ifc.KindRef, wall.Arg(5).Kind)
	assert.Equal(t, 14, wall.Arg(5).Ref)
	assert.Equal(t, ifc.KindNull, wall.Arg(42).Kind)

	shape := file.Deref(wall.Arg(6))
	require.NotNil(t, shape)
	assert.Equal(t, "IFCPRODUCTDEFINITIONSHAPE", shape.Type)
	assert.Equal(t, []int{24}, shape.Arg(2).Refs())

	unit := file.Get(1)
	assert.Equal(t, ifc.KindDerived, unit.Arg(0).Kind)
	assert.Equal(t, ifc.KindEnum, unit.Arg(1).Kind)
	assert.Equal(t, "LENGTHUNIT", unit.Arg(1).Str)
	assert.Equal(t, "MILLI", unit.Arg(2).Str)
}

func TestParseValues(t *testing.T) {
	t.Parallel()

	file, err := ifc.Parse(context.Background(), exchange(
		"#1=IFCPROPERTYSINGLEVALUE('Width',$,IFCLENGTHMEASURE(2.5),$);",
		"#2=IFCCARTESIANPOINTLIST3D(((0.,1.,2.),(3,4,5E0)));",
		"#3=(IFCLENGTHUNIT(1)IFCNAMEDUNIT(2,3));",
		"#4=IFCPIXELTEXTURE(\"0FF\",'k\\X2\\00E4\\X0\\se');",
	))
	require.NoError(t, err)

	typed := file.Get(1).Arg(2)
	assert.Equal(t, ifc.KindTyped, typed.Kind)
	assert.Equal(t, "IFCLENGTHMEASURE", typed.Str)
	f, ok := typed.Float()
	require.True(t, ok)
	assert.InDelta(t, 2.5, f, 1e-12)

	coords := file.Get(2).Arg(0)
	require.Equal(t, ifc.KindList, coords.Kind)
	require.Len(t, coords.List, 2)
	assert.Equal(t, ifc.KindReal, coords.List[0].List[2].Kind)
	assert.Equal(t, ifc.KindInt, coords.List[1].List[0].Kind)
	f, ok = coords.List[1].List[2].Float()
	require.True(t, ok)
	assert.InDelta(t, 5, f, 1e-12)

	complexEntity := file.Get(3)
	assert.Equal(t, "IFCLENGTHUNIT", complexEntity.Type)
	assert.Len(t, complexEntity.Args, 3)

	texture := file.Get(4)
	assert.Equal(t, ifc.KindBinary, texture.Arg(0).Kind)
	assert.Equal(t, "0FF", texture.Arg(0).Str)
	assert.Equal(t, "käse", texture.Arg(1).Str)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string][]byte{
		"no magic":           []byte("HEADER;ENDSEC;"),
		"missing header":     []byte("ISO-10303-21;DATA;ENDSEC;END-ISO-10303-21;"),
		"empty instance":     exchange("#1=;"),
		"duplicate instance": exchange("#1=IFCA();", "#1=IFCB();"),
		"missing semicolon":  exchange("#1=IFCA()"),
		"unclosed list":      exchange("#1=IFCA((1,2);"),
		"no trailer":         []byte("ISO-10303-21;HEADER;ENDSEC;DATA;ENDSEC;"),
	}

	for name, data := range tcs {
		data := data
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := ifc.Parse(context.Background(), data)
			require.ErrorIs(t, err, ifc.ErrSyntax)
		})
	}
}

func TestParseCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ifc.Parse(ctx, fixture(t, "house.ifc"))
	require.ErrorIs(t, err, context.Canceled)
}
