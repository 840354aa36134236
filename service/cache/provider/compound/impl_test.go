package compound

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/service/cache/provider"
	"github.com/x-xyz/keeper/service/cache/provider/primitive"
)

var (
	mockCtx = ctx.Background()
	errDown = errors.New("redis down")
)

// downLayer fails every call, like a shared layer whose server went away.
type downLayer struct{}

func (downLayer) Get(ctx.Ctx, string) ([]byte, time.Duration, error) { return nil, 0, errDown }
func (downLayer) Set(ctx.Ctx, string, []byte, time.Duration) error  { return errDown }
func (downLayer) SetNX(ctx.Ctx, string, []byte, time.Duration) (bool, error) {
	return false, errDown
}
func (downLayer) Del(ctx.Ctx, string) error { return errDown }

type testsuite struct {
	suite.Suite
	local  provider.Provider
	shared provider.Provider
	im     provider.Provider
}

func (ts *testsuite) SetupTest() {
	ts.local = primitive.NewPrimitive("local", 8)
	ts.shared = primitive.NewPrimitive("shared", 8)
	ts.im = NewCompound([]provider.Provider{ts.local, ts.shared})
}

func TestCompound(t *testing.T) {
	suite.Run(t, new(testsuite))
}

func (ts *testsuite) TestSetWritesEveryLayer() {
	ts.NoError(ts.im.Set(mockCtx, "usdc", []byte("6"), time.Second))

	for _, lyr := range []provider.Provider{ts.local, ts.shared} {
		v, _, err := lyr.Get(mockCtx, "usdc")
		ts.NoError(err)
		ts.Equal([]byte("6"), v)
	}

	time.Sleep(2 * time.Second)
	_, _, err := ts.im.Get(mockCtx, "usdc")
	ts.True(errors.Is(err, provider.ErrNotFound))
}

func (ts *testsuite) TestGetFillsFrontLayer() {
	ts.NoError(ts.shared.Set(mockCtx, "weth", []byte("18"), time.Minute))

	v, _, err := ts.im.Get(mockCtx, "weth")
	ts.NoError(err)
	ts.Equal([]byte("18"), v)

	v, _, err = ts.local.Get(mockCtx, "weth")
	ts.NoError(err)
	ts.Equal([]byte("18"), v)
}

func (ts *testsuite) TestGetMiss() {
	_, _, err := ts.im.Get(mockCtx, "absent")
	ts.True(errors.Is(err, provider.ErrNotFound))
}

func (ts *testsuite) TestSetNXDecidedBySharedLayer() {
	ok, err := ts.im.SetNX(mockCtx, "log", []byte("a"), time.Minute)
	ts.NoError(err)
	ts.True(ok)

	// another process only shares the last layer
	ts.NoError(ts.local.Del(mockCtx, "log"))
	ok, err = ts.im.SetNX(mockCtx, "log", []byte("b"), time.Minute)
	ts.NoError(err)
	ts.False(ok)

	v, _, err := ts.shared.Get(mockCtx, "log")
	ts.NoError(err)
	ts.Equal([]byte("a"), v)
	_, _, err = ts.local.Get(mockCtx, "log")
	ts.NoError(err)
}

func (ts *testsuite) TestSharedLayerDown() {
	im := NewCompound([]provider.Provider{ts.local, downLayer{}})

	ts.NoError(im.Set(mockCtx, "usdc", []byte("6"), time.Minute))
	v, _, err := im.Get(mockCtx, "usdc")
	ts.NoError(err)
	ts.Equal([]byte("6"), v)

	_, _, err = im.Get(mockCtx, "absent")
	ts.True(errors.Is(err, errDown))

	_, err = im.SetNX(mockCtx, "log", []byte("a"), time.Minute)
	ts.True(errors.Is(err, errDown))
	ts.Error(im.Del(mockCtx, "usdc"))
}

func (ts *testsuite) TestEveryLayerDown() {
	im := NewCompound([]provider.Provider{downLayer{}})
	ts.True(errors.Is(im.Set(mockCtx, "k", []byte("v"), time.Minute), errDown))
}
