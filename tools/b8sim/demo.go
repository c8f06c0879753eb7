package main

import (
	"github.com/fkuzume/beep8-sdk-sub000/device/machine"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/irq"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/kfmt"
	"github.com/fkuzume/beep8-sdk-sub000/kernel/sched"
	"github.com/fkuzume/beep8-sdk-sub000/ulib"
)

// stats is updated by the demo threads and read by the host between runs.
type stats struct {
	frames uint32
	audio  uint32
	ready  bool
}

// demo returns the main routine of the demo program: a frame thread woken by
// vblank, an audio thread woken by the audio unit and a main loop reporting
// uptime every second.
func demo(st *stats, vblankHz uint32) machine.Entry {
	return func(th *machine.Thread, _ uint32) {
		vblank, err := ulib.SetupIrqWait(th, irq.VBlank)
		if err != nil {
			kfmt.Errorf("demo: vblank wait: %s", err)
			return
		}
		audio, err := ulib.SetupIrqWait(th, irq.Audio)
		if err != nil {
			kfmt.Errorf("demo: audio wait: %s", err)
			return
		}

		ulib.CreateThread(th, nil, func(th *machine.Thread, _ uint32) {
			for vblank.Wait(th) == nil {
				st.frames++
				if st.frames%60 == 0 {
					kfmt.Printf("frame %d\n", st.frames)
				}
			}
		}, 0)

		ulib.CreateThread(th, nil, func(th *machine.Thread, _ uint32) {
			for audio.ClearAndWait(th) == nil {
				st.audio++
				kfmt.Printf("audio event %d\n", st.audio)
			}
		}, 0)

		if vblankHz != 0 {
			if err := th.Machine().StartTimer(irq.VBlank, vblankHz); err != nil {
				kfmt.Errorf("demo: vblank timer: %s", err.Message)
			}
		}
		st.ready = true

		for {
			ulib.Sleep(th, 1000000)
			now, _ := ulib.ClockTime(th, sched.Monotonic)
			kfmt.Printf("uptime %d.%03ds frames=%d\n", now.Sec, now.Nsec/1000000, st.frames)
		}
	}
}
