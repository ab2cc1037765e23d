package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hamed0406/envprobe/internal/domain"
	"github.com/hamed0406/envprobe/internal/probe"
)

const mapsURL = "https://www.google.com/maps?q="

type section struct {
	signal string
	title  string
	render func(b *builder, v probe.Value)
}

var sections = []section{
	{SignalBasic, "🌐 Basic Info:", renderBasic},
	{SignalHardware, "💻 Hardware:", renderHardware},
	{SignalScreen, "🖥️ Screen:", renderScreen},
	{SignalGraphics, "🎮 WebGL:", renderGraphics},
	{SignalNetwork, "📶 Network Info:", renderNetwork},
	{SignalIdentity, "📍 IP Info:", renderIdentity},
	{SignalGeolocation, "📌 GPS:", renderGeo},
	{SignalContentFilter, "🛡️ Adblock Info:", renderContentFilter},
	{SignalPrivacyMode, "🕶️ Private Mode:", renderPrivacy},
	{SignalBattery, "🔋 Battery:", renderBattery},
	{SignalPermissions, "🔐 Permissions:", renderPermissions},
	{SignalStorage, "💾 Storage Estimate:", renderStorage},
	{SignalMediaDevices, "🎙️ Media Devices:", renderMedia},
}

// Format renders r as plain text. Sections come in a fixed order and every
// section renders, with placeholders where the signal has no value.
// Signals outside the known set are listed at the end.
func Format(r Report) string {
	b := &builder{}
	b.line("🔰 Device Information Report 🔰")
	if r.ID() != "" {
		b.item("Report", r.ID())
	}
	if !r.CreatedAt().IsZero() {
		b.item("Generated", r.CreatedAt().UTC().Format(time.RFC3339))
	}

	known := make(map[string]bool, len(sections))
	for _, s := range sections {
		known[s.signal] = true
		b.blank()
		b.line(s.title)
		s.render(b, r.Get(s.signal))
	}

	var other []string
	for _, n := range r.Names() {
		if !known[n] {
			other = append(other, n)
		}
	}
	if len(other) > 0 {
		b.blank()
		b.line("🧩 Other:")
		for _, n := range other {
			v := r.Get(n)
			if v.IsOk() {
				b.item(n, fmt.Sprint(v.Data))
			} else {
				b.item(n, Placeholder(v))
			}
		}
	}
	return b.String()
}

// Placeholder is the text shown in place of a value that is not Ok.
func Placeholder(v probe.Value) string {
	switch v.Kind {
	case probe.KindDenied:
		return "Denied"
	case probe.KindTimedOut:
		return "Timed out"
	default:
		return "Unknown"
	}
}

type builder struct {
	lines []string
}

func (b *builder) line(s string)    { b.lines = append(b.lines, s) }
func (b *builder) blank()           { b.lines = append(b.lines, "") }
func (b *builder) item(k, v string) { b.lines = append(b.lines, "- "+k+": "+orUnknown(v)) }
func (b *builder) String() string   { return strings.Join(b.lines, "\n") }

// items renders the same placeholder for every key.
func (b *builder) items(ph string, keys ...string) {
	for _, k := range keys {
		b.item(k, ph)
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func renderBasic(b *builder, v probe.Value) {
	d, ok := probe.As[domain.Basic](v)
	if !ok {
		b.items(Placeholder(v), "Browser", "Platform", "Language", "Timezone", "Touch/Mouse")
		return
	}
	b.item("Browser", d.Browser)
	b.item("Platform", d.Platform)
	b.item("Language", d.Language)
	b.item("Timezone", d.Timezone)
	b.item("Touch/Mouse", d.Pointer)
}

func renderHardware(b *builder, v probe.Value) {
	d, ok := probe.As[domain.Hardware](v)
	if !ok {
		b.items(Placeholder(v), "CPU", "RAM")
		return
	}
	cpu := ""
	if d.CPUCores > 0 {
		cpu = strconv.Itoa(d.CPUCores) + " cores"
	}
	b.item("CPU", cpu)
	b.item("RAM", bytesOrEmpty(d.MemoryBytes))
}

func renderScreen(b *builder, v probe.Value) {
	d, ok := probe.As[domain.Screen](v)
	if !ok {
		b.items(Placeholder(v), "Resolution", "Color Depth", "DPR", "Orientation")
		return
	}
	res, depth, dpr := "", "", ""
	if d.Width > 0 && d.Height > 0 {
		res = fmt.Sprintf("%dx%d", d.Width, d.Height)
	}
	if d.ColorDepth > 0 {
		depth = fmt.Sprintf("%d-bit", d.ColorDepth)
	}
	if d.PixelRatio > 0 {
		dpr = strconv.FormatFloat(d.PixelRatio, 'f', -1, 64)
	}
	b.item("Resolution", res)
	b.item("Color Depth", depth)
	b.item("DPR", dpr)
	b.item("Orientation", d.Orientation)
}

func renderGraphics(b *builder, v probe.Value) {
	d, ok := probe.As[domain.Graphics](v)
	if !ok {
		b.items(Placeholder(v), "Renderer", "Vendor")
		return
	}
	b.item("Renderer", d.Renderer)
	b.item("Vendor", d.Vendor)
	if d.MaxTextureSize > 0 {
		b.item("Max Texture Size", strconv.Itoa(d.MaxTextureSize))
	}
}

func renderNetwork(b *builder, v probe.Value) {
	d, ok := probe.As[domain.Network](v)
	if !ok {
		b.items(Placeholder(v), "Connection Type", "Effective Type", "Downlink", "Latency (rtt)", "Save-Data", "Online")
		return
	}
	downlink, rtt, saveData := "", "", ""
	if d.DownlinkMbps > 0 {
		downlink = strconv.FormatFloat(d.DownlinkMbps, 'f', -1, 64) + " Mbps"
	}
	if d.RTTMillis > 0 {
		rtt = strconv.Itoa(d.RTTMillis) + " ms"
	}
	if d.SaveData != nil {
		saveData = enabled(*d.SaveData)
	}
	online := "Offline"
	if d.Online {
		online = "Online"
	}
	b.item("Connection Type", d.Type)
	b.item("Effective Type", d.EffectiveType)
	b.item("Downlink", downlink)
	b.item("Latency (rtt)", rtt)
	b.item("Save-Data", saveData)
	b.item("Online", online)
}

func renderIdentity(b *builder, v probe.Value) {
	d, ok := probe.As[domain.Identity](v)
	if !ok {
		ph := Placeholder(v)
		d = domain.Identity{IP: ph, City: ph, Region: ph, Country: ph, Org: ph}
	}
	b.item("IP", d.IP)
	b.line("*Note: IP-based location may not be accurate.*")
	b.item("City", d.City)
	b.item("Region", d.Region)
	b.item("Country", d.Country)
	b.item("ISP", d.Org)
}

func renderGeo(b *builder, v probe.Value) {
	d, ok := probe.As[domain.Position](v)
	if !ok {
		ph := Placeholder(v)
		b.item("Status", ph)
		b.item("Latitude", ph)
		b.item("Longitude", ph)
		return
	}
	lat := strconv.FormatFloat(d.Latitude, 'f', -1, 64)
	lon := strconv.FormatFloat(d.Longitude, 'f', -1, 64)
	status := "Allowed"
	if d.Source == "ip" {
		status = "Approximate (IP)"
	}
	b.item("Status", status)
	b.item("Latitude", lat)
	b.item("Longitude", lon)
	if d.AccuracyMeters > 0 {
		b.item("Accuracy", strconv.FormatFloat(d.AccuracyMeters, 'f', 0, 64)+" m")
	}
	b.item("Map", mapsURL+lat+","+lon)
}

func renderContentFilter(b *builder, v probe.Value) {
	d, ok := probe.As[domain.ContentFilter](v)
	if !ok {
		b.items(Placeholder(v), "Detected", "Method", "Cookies Blocked")
		return
	}
	method := "None"
	if len(d.Methods) > 0 {
		method = strings.Join(d.Methods, "+")
	}
	b.item("Detected", string(d.Detected))
	b.item("Method", method)
	b.item("Cookies Blocked", yesNo(d.CookiesBlocked))
}

func renderPrivacy(b *builder, v probe.Value) {
	d, ok := probe.As[domain.PrivacyMode](v)
	if !ok {
		b.items(Placeholder(v), "Private", "Method")
		return
	}
	method := d.Method
	if !d.Private {
		method = "None"
	}
	b.item("Private", yesNo(d.Private))
	b.item("Method", method)
	if d.Evidence != "" {
		b.item("Evidence", d.Evidence)
	}
}

func renderBattery(b *builder, v probe.Value) {
	d, ok := probe.As[domain.Battery](v)
	if !ok {
		b.items(Placeholder(v), "Level", "Charging")
		return
	}
	b.item("Level", fmt.Sprintf("%d%%", int(d.Level*100+0.5)))
	b.item("Charging", yesNo(d.Charging))
}

func renderPermissions(b *builder, v probe.Value) {
	d, ok := probe.As[domain.Permissions](v)
	if !ok || len(d) == 0 {
		b.item("Status", Placeholder(v))
		return
	}
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.item(k, string(d[k]))
	}
}

func renderStorage(b *builder, v probe.Value) {
	d, ok := probe.As[domain.StorageEstimate](v)
	if !ok {
		b.items(Placeholder(v), "Quota", "Usage")
		return
	}
	b.item("Quota", bytesOrEmpty(d.QuotaBytes))
	b.item("Usage", humanize.IBytes(d.UsageBytes))
}

func renderMedia(b *builder, v probe.Value) {
	d, ok := probe.As[domain.MediaDevices](v)
	if !ok {
		b.items(Placeholder(v), "Cameras", "Microphones", "Outputs")
		return
	}
	b.item("Cameras", strconv.Itoa(d.Cameras))
	b.item("Microphones", strconv.Itoa(d.Microphones))
	b.item("Outputs", strconv.Itoa(d.Outputs))
}

func bytesOrEmpty(n uint64) string {
	if n == 0 {
		return ""
	}
	return humanize.IBytes(n)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func enabled(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}
