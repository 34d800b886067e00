package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vellum-lang/vellum/lang/types"
)

func TestUnifyPrimitivePromotion(t *testing.T) {
	require.True(t, types.Unify(types.Float, types.Int))
	require.False(t, types.Unify(types.Int, types.Float))
	require.True(t, types.Unify(types.Any, types.Int))
	require.False(t, types.Unify(types.Void, types.Int))
}

func TestUnifyClassAncestry(t *testing.T) {
	animal := &types.Class{Name: "Animal"}
	dog := &types.Class{Name: "Dog", Super: []*types.Class{animal}}
	cat := &types.Class{Name: "Cat", Super: []*types.Class{animal}}

	require.True(t, types.Unify(animal, dog))
	require.False(t, types.Unify(dog, animal))
	require.False(t, types.Unify(dog, cat))
}

func TestUnifyUnion(t *testing.T) {
	u := types.NewUnion(types.Int, types.StringT)
	require.True(t, types.Unify(u, types.Int))
	require.True(t, types.Unify(u, types.StringT))
	require.False(t, types.Unify(u, types.Bool))

	// every branch of derived must fit some branch of base
	derived := types.NewUnion(types.Int, types.StringT)
	require.True(t, types.Unify(u, derived))
}

func TestIntersectCommonAncestor(t *testing.T) {
	animal := &types.Class{Name: "Animal"}
	dog := &types.Class{Name: "Dog", Super: []*types.Class{animal}}
	cat := &types.Class{Name: "Cat", Super: []*types.Class{animal}}

	require.Equal(t, animal, types.Intersect(dog, cat))
	// int (rank 1) is assignable to string (rank 3), so string is the supertype
	require.Equal(t, types.StringT, types.Intersect(types.Int, types.StringT))
}

func TestOverloadSetResolvesClosestMatch(t *testing.T) {
	set := types.NewOverloadSet("speak")
	_, err := set.Insert([]types.Type{types.Int}, "int-overload", types.Void)
	require.NoError(t, err)
	_, err = set.Insert([]types.Type{types.StringT}, "string-overload", types.Void)
	require.NoError(t, err)

	ov, ok := set.Resolve([]types.Type{types.Int})
	require.True(t, ok)
	require.Equal(t, "int-overload", ov.Decl)

	_, ok = set.Resolve([]types.Type{types.Bool})
	require.False(t, ok)
}

func TestOverloadSetRejectsRedefinitionAndArity(t *testing.T) {
	set := types.NewOverloadSet("f")
	_, err := set.Insert([]types.Type{types.Int}, "a", types.Void)
	require.NoError(t, err)
	_, err = set.Insert([]types.Type{types.Int}, "b", types.Void)
	require.ErrorIs(t, err, types.ErrRedefined)

	params := make([]types.Type, 257)
	for i := range params {
		params[i] = types.Int
	}
	_, err = set.Insert(params, "c", types.Void)
	require.ErrorIs(t, err, types.ErrTooManyParams)
}
