package command

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
)

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

// writeJSON prints v as indented JSON, or only the part selected by a
// gjson path when query is non-empty.
func writeJSON(w io.Writer, v any, query string) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	if query != "" {
		res := gjson.GetBytes(b, query)
		if !res.Exists() {
			return fmt.Errorf("query %q matched nothing", query)
		}
		if res.Type == gjson.String {
			_, err = fmt.Fprintln(w, res.String())
		} else {
			_, err = fmt.Fprintln(w, res.Raw)
		}
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}
