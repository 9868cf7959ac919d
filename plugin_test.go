package webkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPlugin struct {
	name string
	log  *[]string
}

func (p *recordingPlugin) Name() string { return p.name }
func (p *recordingPlugin) Register(ctx *PluginContext) error {
	*p.log = append(*p.log, p.name+":register")
	return nil
}
func (p *recordingPlugin) OnDispose(ctx *PluginContext) error {
	*p.log = append(*p.log, p.name+":dispose")
	return nil
}

func TestPluginRegistry_LinearRegistrationAndReverseDisposal(t *testing.T) {
	pr := NewPluginRegistry(nil, nil)
	var log []string
	pr.Add(&recordingPlugin{name: "p1", log: &log})
	pr.Add(&recordingPlugin{name: "p2", log: &log})

	container := NewContainer()
	root := NewRouter()
	require.NoError(t, pr.Boot(context.Background(), container, root, nil))
	assert.Equal(t, []string{"p1:register", "p2:register"}, log)

	log = nil
	pr.Shutdown(context.Background())
	assert.Equal(t, []string{"p2:dispose", "p1:dispose"}, log)
}

func TestPluginRegistry_DuplicateNameFails(t *testing.T) {
	pr := NewPluginRegistry(nil, nil)
	var log []string
	pr.Add(&recordingPlugin{name: "p1", log: &log})
	pr.Add(&recordingPlugin{name: "p1", log: &log})

	container := NewContainer()
	root := NewRouter()
	err := pr.Boot(context.Background(), container, root, nil)
	assert.ErrorIs(t, err, ErrDuplicatePluginName)
}
