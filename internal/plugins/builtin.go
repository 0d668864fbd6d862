package plugins

import (
	"AIrchitect-CLI/internal/plugins/example"
	"AIrchitect-CLI/internal/plugins/notes"
	"AIrchitect-CLI/internal/plugins/records"
	"AIrchitect-CLI/pkg/plugin"
)

// Builtin 描述一个内置插件的注册名与工厂。
type Builtin struct {
	Name    string
	Factory plugin.Factory
}

// Builtins 按加载顺序返回全部内置插件。
func Builtins() []Builtin {
	return []Builtin{
		{Name: example.Name, Factory: example.New},
		{Name: notes.Name, Factory: notes.New},
		{Name: records.Name, Factory: records.New},
	}
}

// LoadAll 通过管理器加载全部内置插件，返回实际加载（未被清单禁用）的插件名。
func LoadAll(m *plugin.Manager) ([]string, error) {
	var loaded []string
	for _, b := range Builtins() {
		ok, err := m.Load(b.Name, b.Factory)
		if err != nil {
			return loaded, err
		}
		if ok {
			loaded = append(loaded, b.Name)
		}
	}
	return loaded, nil
}
