package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cptspacemanspiff/gnome-power-tracker/internal/collector"
)

type deviceRow struct {
	id     string
	typ    string
	source string
	power  string
	status string
	state  rowState
}

type rowState int

const (
	rowIgnored rowState = iota
	rowOK
	rowNoData
	rowFailed
)

func NewDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List power-supply devices and how each one is read",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			rows, err := inspectDevices(a.cfg.Sysfs.PowerSupplyPath)
			if err != nil {
				return err
			}
			return printDevices(cmd.OutOrStdout(), rows)
		},
	}
}

func inspectDevices(root string) ([]deviceRow, error) {
	ids, err := collector.DeviceIDs(root)
	if err != nil {
		return nil, err
	}

	rows := make([]deviceRow, 0, len(ids))
	for _, id := range ids {
		row := deviceRow{id: id, source: "-", power: "-", status: "-"}
		typ, err := collector.Classify(root, id)
		if err != nil {
			row.typ = "?"
			rows = append(rows, row)
			continue
		}
		row.typ = typ
		if typ != collector.BatteryType {
			rows = append(rows, row)
			continue
		}

		r := collector.ReadBattery(root, id)
		switch {
		case r.Err != nil:
			row.state = rowFailed
			row.status = r.Err.Error()
		case r.Source == collector.SourceNone:
			row.state = rowNoData
			row.status = "no power metric"
		default:
			row.state = rowOK
			row.source = r.Source.String()
			row.power = fmt.Sprintf("%s%.1fW", r.Sample.Direction.Sign(), r.Sample.PowerWatts)
			row.status = r.Sample.Direction.String()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func printDevices(w io.Writer, rows []deviceRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No power-supply devices found.")
		return err
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tTYPE\tSOURCE\tPOWER\tSTATUS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.id, r.typ, r.source, r.power, r.status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	// Colour whole lines after alignment so escape codes do not skew columns.
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	fmt.Fprintln(w, color.New(color.Bold).Sprint(lines[0]))
	for i, line := range lines[1:] {
		_, err := fmt.Fprintln(w, rowColor(rows[i].state).Sprint(line))
		if err != nil {
			return err
		}
	}
	return nil
}

func rowColor(s rowState) *color.Color {
	switch s {
	case rowOK:
		return color.New(color.FgGreen)
	case rowNoData:
		return color.New(color.FgYellow)
	case rowFailed:
		return color.New(color.FgRed)
	default:
		return color.New(color.Faint)
	}
}
