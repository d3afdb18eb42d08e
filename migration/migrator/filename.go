package migrator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Migration directions as they appear in file names
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

var (
	migrationFileRe = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_]+)\.(up|down)\.sql$`)
	nonWordRe       = regexp.MustCompile(`[^a-z0-9]+`)
)

// MigrationFile is the parsed form of a NNNNNNNNNN_description.(up|down).sql file name
type MigrationFile struct {
	Version   int
	Name      string
	Direction string
}

// ParseMigrationFileName parses a migration file name. The description is
// turned into a title cased name, e.g. "create_point_type" becomes
// "Create Point Type".
func ParseMigrationFileName(filename string) (*MigrationFile, error) {
	m := migrationFileRe.FindStringSubmatch(filename)
	if m == nil {
		return nil, fmt.Errorf("invalid migration filename: %s", filename)
	}

	version, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("invalid migration version in %s: %w", filename, err)
	}

	return &MigrationFile{
		Version:   version,
		Name:      cases.Title(language.English).String(strings.ReplaceAll(m[2], "_", " ")),
		Direction: m[3],
	}, nil
}

// GenerateMigrationFileName returns the file name for a migration version,
// description and direction. The version is zero padded to ten digits.
func GenerateMigrationFileName(version int, description, direction string) string {
	slug := strings.Trim(nonWordRe.ReplaceAllString(strings.ToLower(description), "_"), "_")
	return fmt.Sprintf("%010d_%s.%s.sql", version, slug, direction)
}

// GetNextMigrationVersion returns a version derived from the current UTC time
// as YYYYMMDDHHMMSS
func GetNextMigrationVersion() int {
	return VersionFromTime(time.Now())
}

// VersionFromTime returns t in UTC as a YYYYMMDDHHMMSS version
func VersionFromTime(t time.Time) int {
	t = t.UTC()
	return t.Year()*10000000000 + int(t.Month())*100000000 + t.Day()*1000000 + t.Hour()*10000 + t.Minute()*100 + t.Second()
}
