package canpub

import (
	"fmt"
	"io"
	"os"

	"github.com/gosuri/uitable"

	"github.com/autopeer-io/canpub/internal/canpub/model"
)

// StdinSource is the event file name that reads from standard input.
const StdinSource = "-"

// Source is a raw detection event and where it came from.
type Source struct {
	Name string
	Raw  []byte
}

// LoadSources reads the given event files in order. Without files it returns
// the built-in examples.
func LoadSources(files []string, stdin io.Reader) ([]Source, error) {
	if len(files) == 0 {
		return []Source{
			{Name: "example/blind-spot", Raw: ExampleBlindSpot},
			{Name: "example/rear-collision", Raw: ExampleRearCollision},
		}, nil
	}

	sources := make([]Source, 0, len(files))
	for _, name := range files {
		var (
			raw []byte
			err error
		)
		if name == StdinSource {
			raw, err = io.ReadAll(stdin)
		} else {
			raw, err = os.ReadFile(name)
		}
		if err != nil {
			return nil, fmt.Errorf("read event file %s: %w", name, err)
		}
		sources = append(sources, Source{Name: name, Raw: raw})
	}
	return sources, nil
}

// WriteTable encodes every source without publishing and prints one row per
// frame. Malformed sources are reported in the table and counted in the
// returned error.
func WriteTable(w io.Writer, sources []Source) error {
	table := uitable.New()
	table.MaxColWidth = 120
	table.AddRow("SOURCE", "ALGORITHM", "FRAME", "PAYLOAD")

	failed := 0
	for _, src := range sources {
		ev, err := model.ParseEvent(src.Raw)
		if err != nil {
			failed++
			table.AddRow(src.Name, "-", "-", fmt.Sprintf("error: %v", err))
			continue
		}

		frame := ev.Frame()
		payload, err := model.NewStatusMessage(ev.Algorithm(), frame).Marshal()
		if err != nil {
			return err
		}
		table.AddRow(src.Name, ev.Algorithm(), frame.String(), string(payload))
	}

	if _, err := fmt.Fprintln(w, table); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d events", ErrMalformedEvent, failed, len(sources))
	}
	return nil
}
