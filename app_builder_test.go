package ringrun

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type MockModule struct {
	installed int
	order     *[]string
	name      string
}

func (m *MockModule) Install(app *App, commands *Commands) {
	m.installed++
	if m.order != nil {
		*m.order = append(*m.order, m.name)
	}
}

func TestAppBuilder_Stateless(t *testing.T) {
	app := NewAppBuilder().Build()

	assert.False(t, app.stateful)
	assert.Equal(t, State(0), app.initialState)
	assert.Equal(t, State(0), app.finalState)
}

func TestAppBuilder_UseStates(t *testing.T) {
	app := NewAppBuilder().UseStates(1, 10).Build()

	assert.True(t, app.stateful)
	assert.Equal(t, State(1), app.initialState)
	assert.Equal(t, State(10), app.finalState)
}

func TestAppBuilder_UseModule(t *testing.T) {
	builder := NewAppBuilder()
	builder.UseModule(&MockModule{})

	assert.Len(t, builder.modules, 1)
}

func TestAppBuilder_Build_WithModules(t *testing.T) {
	module := &MockModule{}
	app := NewAppBuilder().UseModule(module).Build()

	assert.Equal(t, 1, module.installed)

	// Starting must not install the module a second time.
	app.Start()
	assert.Equal(t, 1, module.installed)
}

func TestAppBuilder_Build_WithMultipleModules(t *testing.T) {
	var order []string
	module1 := &MockModule{order: &order, name: "first"}
	module2 := &MockModule{order: &order, name: "second"}

	builder := NewAppBuilder()
	builder.UseModule(module1)
	builder.UseModule(module2)
	builder.Build()

	assert.Len(t, builder.modules, 2)
	assert.Equal(t, []string{"first", "second"}, order)
}

type resourceModule struct{}

func (resourceModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewMockResource1("from module"))
	cmd.AddEntity(Comp1{a: 7})
}

func TestAppBuilder_Build_FlushesModuleCommands(t *testing.T) {
	app := NewAppBuilder().UseModule(resourceModule{}).Build()

	res, ok := Resource[MockResource1](app)
	assert.True(t, ok)
	assert.Equal(t, "from module", res.name)
	assert.Equal(t, 1, MakeQuery1[Comp1](app.Commands()).Count(), "entities spawned while installing exist before the first frame")
}
