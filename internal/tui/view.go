package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"netdiag/internal/discovery"
	"netdiag/internal/identity"
	"netdiag/internal/portscan"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	keyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

var menuItems = []string{
	"1. Show Network Details",
	"2. Scan Localhost Ports",
	"3. Discover LAN Devices",
	"4. Check HTTP/HTTPS Service",
	"5. Bluetooth Status Check",
	"6. View Logs",
	"0. Exit",
}

func menuView() string {
	title := titleStyle.Render("NETWORK DIAGNOSTICS")
	body := infoStyle.Render(strings.Join(menuItems, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

func snapshotView(s identity.Snapshot) string {
	rows := [][2]string{
		{"Hostname", s.Hostname},
		{"Local IP", s.LocalIP},
		{"Public IP", s.PublicIP},
		{"MAC Address", s.MAC},
		{"Operating System", s.OSName + " " + s.OSVersion},
		{"Platform", s.Platform},
	}

	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = fmt.Sprintf("%s %s", keyStyle.Render(fmt.Sprintf("%-17s", r[0]+":")), r[1])
	}
	title := titleStyle.Render("Network Details")
	return lipgloss.JoinVertical(lipgloss.Left, title, infoStyle.Render(strings.Join(lines, "\n")))
}

func portsView(ports []int) string {
	rows := make([]table.Row, len(ports))
	for i, p := range ports {
		rows[i] = table.Row{strconv.Itoa(p), portscan.ServiceName(p)}
	}
	columns := []table.Column{
		{Title: "Port", Width: 8},
		{Title: "Service", Width: 16},
	}
	return infoStyle.Render(fmt.Sprintf("Open Ports (%d)\n", len(ports)) + staticTable(columns, rows))
}

func devicesView(devices []discovery.Device) string {
	rows := make([]table.Row, len(devices))
	for i, d := range devices {
		rows[i] = table.Row{d.IP, d.MAC}
	}
	columns := []table.Column{
		{Title: "IP", Width: 16},
		{Title: "MAC", Width: 20},
	}
	return infoStyle.Render(fmt.Sprintf("LAN Devices (%d)\n", len(devices)) + staticTable(columns, rows))
}

// staticTable renders every row at once; there is no cursor to move.
func staticTable(columns []table.Column, rows []table.Row) string {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+2),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)

	return t.View()
}

func warningView(msg string) string {
	return warnStyle.Render("Warning: " + msg)
}

func logView(content string) string {
	return titleStyle.Render("Event Logs") + "\n" + content
}

func (m busyModel) View() string {
	if m.finished {
		return ""
	}
	return m.spinner.View() + " " + m.title + "\n"
}
