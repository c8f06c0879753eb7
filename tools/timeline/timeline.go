package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/fkuzume/beep8-sdk-sub000/kernel/task"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/trace"
)

const (
	margin     = 10
	labelWidth = 80
	axisHeight = 20
)

// causeColors colors each run by the scheduler path that started it.
var causeColors = map[trace.Cause][3]float64{
	trace.RoundRobin: {0.27, 0.51, 0.71},
	trace.Idle:       {0.75, 0.75, 0.75},
	trace.Yield:      {0.40, 0.69, 0.35},
	trace.Post:       {0.93, 0.60, 0.20},
	trace.Timeout:    {0.84, 0.15, 0.16},
	trace.Timer:      {0.58, 0.40, 0.74},
	trace.IRQ:        {0.89, 0.47, 0.76},
}

var errNoEvents = errors.New("trace holds no events")

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[timeline] error: %s\n", err.Error())
	os.Exit(1)
}

// span is an interval during which a thread held the CPU.
type span struct {
	thread   task.ThreadID
	from, to uint64
	cause    trace.Cause
}

// spans turns switch events into runs. The last thread switched in runs
// until the end of the trace.
func spans(evs []trace.Event) []span {
	out := make([]span, 0, len(evs))
	for i, ev := range evs {
		end := ev.At
		if i+1 < len(evs) {
			end = evs[i+1].At
		}
		out = append(out, span{thread: ev.To, from: ev.At, to: end, cause: ev.Cause})
	}
	return out
}

// lanes returns every thread that appears in evs in id order.
func lanes(evs []trace.Event) []task.ThreadID {
	seen := make(map[task.ThreadID]bool)
	var ids []task.ThreadID
	for _, ev := range evs {
		for _, id := range []task.ThreadID{ev.From, ev.To} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func render(evs []trace.Event, width, rowHeight int) (*gg.Context, error) {
	if len(evs) == 0 {
		return nil, errNoEvents
	}
	if width <= labelWidth+margin || rowHeight < 4 {
		return nil, fmt.Errorf("image too small: %dx%d rows", width, rowHeight)
	}

	var (
		ids    = lanes(evs)
		row    = make(map[task.ThreadID]int, len(ids))
		start  = evs[0].At
		end    = evs[len(evs)-1].At
		height = 2*margin + axisHeight + rowHeight*len(ids)
	)
	if end == start {
		end = start + 1
	}
	scale := float64(width-labelWidth-margin) / float64(end-start)

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	for i, id := range ids {
		row[id] = i
		y := float64(margin + i*rowHeight)
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(id.String(), margin, y+float64(rowHeight)/2, 0, 0.5)

		dc.SetRGB(0.9, 0.9, 0.9)
		dc.DrawLine(labelWidth, y+float64(rowHeight), float64(width-margin), y+float64(rowHeight))
		dc.Stroke()
	}

	for _, s := range spans(evs) {
		x := labelWidth + float64(s.from-start)*scale
		w := float64(s.to-s.from) * scale
		if w < 1 {
			w = 1
		}
		y := float64(margin + row[s.thread]*rowHeight)

		c := causeColors[s.cause]
		dc.SetRGB(c[0], c[1], c[2])
		dc.DrawRectangle(x, y+2, w, float64(rowHeight-4))
		dc.Fill()
	}

	axisY := float64(height - margin - axisHeight/2)
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(fmt.Sprintf("%dus", start), labelWidth, axisY, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%dus", end), float64(width-margin), axisY, 1, 0.5)
	return dc, nil
}

func runTool() error {
	in := flag.String("in", "-", "a trace dump written by b8sim -trace or - to read STDIN")
	out := flag.String("out", "timeline.png", "the PNG file to write")
	width := flag.Int("width", 1024, "the image width in pixels")
	rowHeight := flag.Int("row", 18, "the height of each thread lane in pixels")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "timeline: render a context switch trace as a PNG\n\n")
		fmt.Fprint(os.Stderr, "Usage: timeline [options]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	var r io.Reader = os.Stdin
	if *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	evs, err := trace.Parse(r)
	if err != nil {
		return err
	}

	dc, err := render(evs, *width, *rowHeight)
	if err != nil {
		return err
	}
	return dc.SavePNG(*out)
}

func main() {
	if err := runTool(); err != nil {
		exit(err)
	}
}
