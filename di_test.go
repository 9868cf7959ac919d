package webkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct{ n int }

func TestContainer_EagerSingletonSameReference(t *testing.T) {
	c := NewContainer()
	w := &widget{n: 1}
	require.NoError(t, RegisterSingleton[*widget](c, w))

	a, err := Get[*widget](c)
	require.NoError(t, err)
	b, err := Get[*widget](c)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestContainer_LazySingletonBuiltOnce(t *testing.T) {
	c := NewContainer()
	calls := 0
	require.NoError(t, RegisterLazySingleton[*widget](c, func(c *Container) (*widget, error) {
		calls++
		return &widget{n: calls}, nil
	}))

	a, err := Get[*widget](c)
	require.NoError(t, err)
	b, err := Get[*widget](c)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)
}

func TestContainer_FactoryFreshEachCall(t *testing.T) {
	c := NewContainer()
	require.NoError(t, RegisterFactory[*widget](c, func(c *Container) (*widget, error) {
		return &widget{}, nil
	}))

	a, err := Get[*widget](c)
	require.NoError(t, err)
	b, err := Get[*widget](c)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestContainer_NotRegisteredFails(t *testing.T) {
	c := NewContainer()
	_, err := Get[*widget](c)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestContainer_DuplicateRegistrationFails(t *testing.T) {
	c := NewContainer()
	require.NoError(t, RegisterSingleton[*widget](c, &widget{}))
	err := RegisterSingleton[*widget](c, &widget{})
	assert.ErrorIs(t, err, ErrServiceAlreadyRegistered)
}

func TestContainer_OverrideSingletonReplacesInstance(t *testing.T) {
	c := NewContainer()
	require.NoError(t, RegisterSingleton[*widget](c, &widget{n: 1}))

	replacement := &widget{n: 2}
	OverrideSingleton[*widget](c, replacement)

	got, err := Get[*widget](c)
	require.NoError(t, err)
	assert.Same(t, replacement, got)
}

func TestContainer_ChildResolvesParentAndShadowsLocally(t *testing.T) {
	parent := NewContainer()
	require.NoError(t, RegisterSingleton[*widget](parent, &widget{n: 1}))

	child := parent.NewChild()
	got, err := Get[*widget](child)
	require.NoError(t, err)
	assert.Equal(t, 1, got.n)

	localWidget := &widget{n: 2}
	require.NoError(t, RegisterSingleton[*widget](child, localWidget))
	got, err = Get[*widget](child)
	require.NoError(t, err)
	assert.Same(t, localWidget, got)

	parentGot, err := Get[*widget](parent)
	require.NoError(t, err)
	assert.Equal(t, 1, parentGot.n)
}

type depA struct{ b *depB }
type depB struct{ a *depA }

func TestContainer_CircularDependencyDetected(t *testing.T) {
	c := NewContainer()
	require.NoError(t, RegisterLazySingleton[*depA](c, func(c *Container) (*depA, error) {
		b, err := Get[*depB](c)
		if err != nil {
			return nil, err
		}
		return &depA{b: b}, nil
	}))
	require.NoError(t, RegisterLazySingleton[*depB](c, func(c *Container) (*depB, error) {
		a, err := Get[*depA](c)
		if err != nil {
			return nil, err
		}
		return &depB{a: a}, nil
	}))

	_, err := Get[*depA](c)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircularDependency)

	var cycleErr *CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.GreaterOrEqual(t, len(cycleErr.Chain), 2)
}

func TestContainer_DisposeInvokesDisposersReverseOrder(t *testing.T) {
	c := NewContainer()
	var order []string

	require.NoError(t, RegisterSingleton[*widget](c, &widget{n: 1}))
	require.NoError(t, WithDisposer[*widget](c, func(w *widget) error {
		order = append(order, "widget")
		return nil
	}))

	require.NoError(t, RegisterSingleton[*depA](c, &depA{}))
	require.NoError(t, WithDisposer[*depA](c, func(a *depA) error {
		order = append(order, "depA")
		return nil
	}))

	require.NoError(t, c.Dispose())
	assert.Equal(t, []string{"depA", "widget"}, order)
}
