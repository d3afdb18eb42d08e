package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/pgcomposite/composite"
	"github.com/stokaro/pgcomposite/config"
)

const shapesConfig = `database_url: postgres://app@localhost/shapes
schema: geometry
log_level: debug
ignored_types: [legacy_point]
types:
  - name: x_box
    attributes:
      - {name: top_left, type: x_point}
      - {name: bottom_right, type: x_point}
  - name: x_point
    attributes:
      - {name: x, type: integer}
      - {name: y, type: integer}
  - name: polygon
    attributes:
      - {name: label, type: varchar(20)}
      - {name: vertices, type: "x_point[]"}
      - {name: weights, type: "double precision[]"}
`

func writeConfig(c *qt.C, content string) string {
	path := filepath.Join(c.TempDir(), "pgcomposite.yaml")
	err := os.WriteFile(path, []byte(content), 0600)
	c.Assert(err, qt.IsNil)
	return path
}

func TestDefaultOptions(t *testing.T) {
	c := qt.New(t)

	opts := config.DefaultOptions()
	c.Assert(opts.Schema, qt.Equals, "public")
	c.Assert(opts.MigrationsDir, qt.Equals, "./migrations")
	c.Assert(opts.LogLevel, qt.Equals, "info")
	c.Assert(opts.DryRun, qt.IsFalse)
}

func TestLoad_File(t *testing.T) {
	c := qt.New(t)

	opts, err := config.Load(writeConfig(c, shapesConfig))
	c.Assert(err, qt.IsNil)
	c.Assert(opts.DatabaseURL, qt.Equals, "postgres://app@localhost/shapes")
	c.Assert(opts.Schema, qt.Equals, "geometry")
	c.Assert(opts.MigrationsDir, qt.Equals, "./migrations")
	c.Assert(opts.IgnoredTypes, qt.DeepEquals, []string{"legacy_point"})
	c.Assert(opts.Types, qt.HasLen, 3)
	c.Assert(opts.Types[1], qt.DeepEquals, config.TypeDeclaration{
		Name: "x_point",
		Attributes: []config.AttributeDeclaration{
			{Name: "x", Type: "integer"},
			{Name: "y", Type: "integer"},
		},
	})

	level, err := opts.SlogLevel()
	c.Assert(err, qt.IsNil)
	c.Assert(level, qt.Equals, slog.LevelDebug)
}

func TestLoad_Environment(t *testing.T) {
	c := qt.New(t)

	t.Setenv("PGCOMPOSITE_DATABASE_URL", "postgres://env@localhost/db")
	t.Setenv("PGCOMPOSITE_DRY_RUN", "true")
	t.Setenv("PGCOMPOSITE_IGNORED_TYPES", "a,b")

	opts, err := config.Load(writeConfig(c, shapesConfig))
	c.Assert(err, qt.IsNil)
	c.Assert(opts.DatabaseURL, qt.Equals, "postgres://env@localhost/db")
	c.Assert(opts.DryRun, qt.IsTrue)
	c.Assert(opts.IgnoredTypes, qt.DeepEquals, []string{"a", "b"})
	c.Assert(opts.Schema, qt.Equals, "geometry")
}

func TestLoad_NoFile(t *testing.T) {
	c := qt.New(t)

	opts, err := config.Load("")
	c.Assert(err, qt.IsNil)
	c.Assert(opts.Schema, qt.Equals, "public")
	c.Assert(opts.Types, qt.HasLen, 0)
}

func TestLoad_Errors(t *testing.T) {
	c := qt.New(t)

	_, err := config.Load(filepath.Join(c.TempDir(), "missing.yaml"))
	c.Assert(err, qt.ErrorMatches, "failed to read config file .*")

	_, err = config.Load(writeConfig(c, "log_level: chatty\n"))
	c.Assert(err, qt.ErrorMatches, `invalid log level "chatty": .*`)
}

func TestOptions_Descriptors(t *testing.T) {
	c := qt.New(t)

	opts, err := config.Load(writeConfig(c, shapesConfig))
	c.Assert(err, qt.IsNil)

	descs, err := opts.Descriptors()
	c.Assert(err, qt.IsNil)

	names := make([]string, 0, len(descs))
	for _, d := range descs {
		names = append(names, d.TypeName())
	}
	c.Assert(names, qt.DeepEquals, []string{"x_point", "x_box", "polygon"})

	box := descs[1]
	c.Assert(box.Attribute(0).Kind, qt.Equals, composite.KindComposite)
	c.Assert(box.Attribute(0).Type, qt.Equals, descs[0])

	polygon := descs[2]
	c.Assert(polygon.Attribute(0).SQLType(), qt.Equals, "varchar(20)")
	c.Assert(polygon.Attribute(1).IsCompositeArray(), qt.IsTrue)
	c.Assert(polygon.Attribute(2).SQLType(), qt.Equals, "double precision[]")
}

func TestOptions_Descriptors_Errors(t *testing.T) {
	tests := []struct {
		name    string
		types   []config.TypeDeclaration
		wantErr string
	}{
		{
			name:    "missing type name",
			types:   []config.TypeDeclaration{{Attributes: []config.AttributeDeclaration{{Name: "x", Type: "integer"}}}},
			wantErr: "composite type: database type name is required",
		},
		{
			name: "duplicate declaration",
			types: []config.TypeDeclaration{
				{Name: "p", Attributes: []config.AttributeDeclaration{{Name: "x", Type: "integer"}}},
				{Name: "p", Attributes: []config.AttributeDeclaration{{Name: "y", Type: "integer"}}},
			},
			wantErr: "composite type p: declared more than once",
		},
		{
			name:    "unknown type",
			types:   []config.TypeDeclaration{{Name: "p", Attributes: []config.AttributeDeclaration{{Name: "x", Type: "money"}}}},
			wantErr: `composite type p: attribute x: unsupported scalar type "money"`,
		},
		{
			name:    "missing attribute type",
			types:   []config.TypeDeclaration{{Name: "p", Attributes: []config.AttributeDeclaration{{Name: "x"}}}},
			wantErr: "composite type p: attribute x has no type",
		},
		{
			name: "circular reference",
			types: []config.TypeDeclaration{
				{Name: "a", Attributes: []config.AttributeDeclaration{{Name: "b", Type: "b"}}},
				{Name: "b", Attributes: []config.AttributeDeclaration{{Name: "a", Type: "a[]"}}},
			},
			wantErr: "composite type a: circular type reference",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			opts := &config.Options{Types: tt.types}
			_, err := opts.Descriptors()
			c.Assert(composite.IsConfigurationError(err), qt.IsTrue)
			c.Assert(err, qt.ErrorMatches, tt.wantErr)
		})
	}
}

func TestOptions_IgnoredTypes(t *testing.T) {
	c := qt.New(t)

	opts := &config.Options{IgnoredTypes: []string{"legacy_point", "audit_entry"}}
	c.Assert(opts.IsTypeIgnored("legacy_point"), qt.IsTrue)
	c.Assert(opts.IsTypeIgnored("x_point"), qt.IsFalse)
	c.Assert(opts.FilterIgnoredTypes([]string{"x_point", "audit_entry", "card"}), qt.DeepEquals, []string{"x_point", "card"})
	c.Assert(opts.FilterIgnoredTypes(nil), qt.DeepEquals, []string{})
}
