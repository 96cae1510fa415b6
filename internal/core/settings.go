package core

// settings.go resolves per-run settings from the scoped configuration provider.
//
// Keys follow the (group, field) convention:
//
//	connection.type, connection.host, connection.port, connection.username, connection.password
//	import.<code>_path, import.<code>_file_pattern
//	general.field_separator, general.field_enclosure, general.file_encoding

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/logistic/internal/config"
	"github.com/JonMunkholm/logistic/internal/transport"
)

// ConnectionConfig is everything needed to reach one kind's remote directory.
type ConnectionConfig struct {
	Type        string
	Credentials transport.Credentials
	Path        string
	FilePattern string
}

// String masks the password.
func (c ConnectionConfig) String() string {
	host := c.Credentials.Host
	if c.Credentials.Port != "" {
		host += ":" + c.Credentials.Port
	}
	return fmt.Sprintf("%s://%s:[MASKED]@%s path=%q pattern=%q",
		c.Type, c.Credentials.Username, host, c.Path, c.FilePattern)
}

// LoadConnectionConfig reads the connection group and the kind's path and pattern.
func LoadConnectionConfig(ctx context.Context, s config.Scoped, code string) (ConnectionConfig, error) {
	var cc ConnectionConfig
	fields := []struct {
		group, field string
		dst          *string
	}{
		{"connection", "type", &cc.Type},
		{"connection", "host", &cc.Credentials.Host},
		{"connection", "port", &cc.Credentials.Port},
		{"connection", "username", &cc.Credentials.Username},
		{"connection", "password", &cc.Credentials.Password},
		{"import", code + "_path", &cc.Path},
		{"import", code + "_file_pattern", &cc.FilePattern},
	}
	for _, f := range fields {
		v, err := s.Value(ctx, f.group, f.field)
		if err != nil {
			return ConnectionConfig{}, fmt.Errorf("read %s: %w", config.ScopedKey(f.group, f.field), err)
		}
		*f.dst = v
	}
	return cc, nil
}

// Dialect describes the delimited file format.
type Dialect struct {
	Separator rune
	Enclosure rune
	Encoding  string // IANA charset name; empty means UTF-8
}

// DefaultDialect is comma separated, double-quote enclosed UTF-8.
var DefaultDialect = Dialect{Separator: ',', Enclosure: '"'}

// LoadDialect reads the general group. Unset values fall back to DefaultDialect.
func LoadDialect(ctx context.Context, s config.Scoped) (Dialect, error) {
	d := DefaultDialect

	sep, err := s.Value(ctx, "general", "field_separator")
	if err != nil {
		return d, fmt.Errorf("read field separator: %w", err)
	}
	enc, err := s.Value(ctx, "general", "field_enclosure")
	if err != nil {
		return d, fmt.Errorf("read field enclosure: %w", err)
	}
	charset, err := s.Value(ctx, "general", "file_encoding")
	if err != nil {
		return d, fmt.Errorf("read file encoding: %w", err)
	}

	if sep != "" {
		if d.Separator, err = parseDialectRune(sep); err != nil {
			return d, fmt.Errorf("field separator: %w", err)
		}
	}
	if enc != "" {
		if d.Enclosure, err = parseDialectRune(enc); err != nil {
			return d, fmt.Errorf("field enclosure: %w", err)
		}
	}
	d.Encoding = strings.TrimSpace(charset)

	return d, d.Validate()
}

// Validate rejects dialects encoding/csv cannot honor.
func (d Dialect) Validate() error {
	for _, r := range []rune{d.Separator, d.Enclosure} {
		if r == '\r' || r == '\n' || r == utf8.RuneError {
			return fmt.Errorf("invalid dialect character %q", r)
		}
	}
	if d.Separator == d.Enclosure {
		return fmt.Errorf("field separator and enclosure are both %q", d.Separator)
	}
	return nil
}

// parseDialectRune accepts a single character, or a tab spelled as "\t" or "tab".
func parseDialectRune(s string) (rune, error) {
	switch s {
	case `\t`, "\t", "tab", "TAB":
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%q must be a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// CompilePattern compiles a file-name pattern. Patterns may be bare Go regexps
// or delimited the way PHP's preg functions expect them ("/^stock_.*\.csv$/i").
// Supported trailing flags are i, m, s and U; the PCRE-only u flag is ignored.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	p := strings.TrimSpace(pattern)
	if p == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPattern)
	}

	if body, flags, ok := splitDelimited(p); ok {
		var goFlags strings.Builder
		for _, f := range flags {
			switch f {
			case 'i', 'm', 's', 'U':
				goFlags.WriteRune(f)
			case 'u':
			default:
				return nil, fmt.Errorf("%w: unsupported flag %q in %s", ErrInvalidPattern, f, pattern)
			}
		}
		p = body
		if goFlags.Len() > 0 {
			p = "(?" + goFlags.String() + ")" + body
		}
	}

	re, err := regexp.Compile(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}

// pcreDelimiters are the delimiters recognised around a pattern.
const pcreDelimiters = "/#~@!%|+;"

// splitDelimited detects a PCRE delimiter and returns the body and flags.
func splitDelimited(p string) (body, flags string, ok bool) {
	if len(p) < 2 || !strings.ContainsRune(pcreDelimiters, rune(p[0])) {
		return "", "", false
	}
	end := strings.LastIndexByte(p, p[0])
	if end < 1 {
		return "", "", false
	}
	flags = p[end+1:]
	for _, f := range flags {
		if !isAlnum(f) {
			return "", "", false
		}
	}
	return p[1:end], flags, true
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}
