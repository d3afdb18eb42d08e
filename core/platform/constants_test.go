package platform_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/pgcomposite/core/platform"
)

func TestFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "postgres://user@localhost/db", want: platform.Postgres},
		{url: "postgresql://user@localhost/db", want: platform.Postgres},
		{url: "mysql://root@tcp(localhost:3306)/db", want: platform.MySQL},
		{url: "mariadb://root@localhost/db", want: platform.MariaDB},
		{url: "sqlite://file.db", want: ""},
		{url: "host=localhost dbname=db", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(platform.FromURL(tt.url), qt.Equals, tt.want)
		})
	}
}

func TestSupportsCompositeTypes(t *testing.T) {
	c := qt.New(t)
	c.Assert(platform.SupportsCompositeTypes("pgx"), qt.IsTrue)
	c.Assert(platform.SupportsCompositeTypes(platform.MySQL), qt.IsFalse)
	c.Assert(platform.SupportsCompositeTypes(platform.MariaDB), qt.IsFalse)
}
