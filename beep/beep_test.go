package beep

import "testing"

func TestTickDecays(t *testing.T) {
	s := tick(successFreq, 0.2, successVolume, successDecay)
	if len(s) != int(sampleRate*0.2) {
		t.Fatalf("len = %d", len(s))
	}
	peak := func(xs []int16) int16 {
		var m int16
		for _, x := range xs {
			if x < 0 {
				x = -x
			}
			if x > m {
				m = x
			}
		}
		return m
	}
	head, tail := peak(s[:len(s)/10]), peak(s[len(s)*9/10:])
	if head <= tail {
		t.Errorf("envelope does not decay: head %d tail %d", head, tail)
	}
	limit := 32767 * successVolume
	if head > int16(limit)+1 {
		t.Errorf("peak %d above volume", head)
	}
}

func TestDoubleBeepHasGap(t *testing.T) {
	b := tick(errorFreq, 0.08, errorVolume, errorDecay)
	d := doubleBeep(errorFreq, 0.08, 0.05, errorVolume, errorDecay)
	gap := int(sampleRate * 0.05)
	if len(d) != 2*len(b)+gap {
		t.Fatalf("len = %d, want %d", len(d), 2*len(b)+gap)
	}
	for i := len(b); i < len(b)+gap; i++ {
		if d[i] != 0 {
			t.Fatalf("sample %d in gap is %d", i, d[i])
		}
	}
}
