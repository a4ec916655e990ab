package midi

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fuuzen/yam-go/internal/interp"
	"github.com/fuuzen/yam-go/internal/parser"
	"github.com/fuuzen/yam-go/internal/sema"
)

// noteEvent is the slice of a decoded smf.Track this package's tests care
// about: a note-on/off with its delta tick and key.
type noteEvent struct {
	delta uint32
	on    bool
	key   uint8
}

func buildResult(t *testing.T, src string) *Result {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	res, err := sema.Analyze(prog)
	require.NoError(t, err)
	it := interp.New(res)
	require.NotNil(t, prog.Score)
	r, err := Build(it, prog.Score)
	require.NoError(t, err)
	return r
}

// decodeChannelTrack collects the note on/off events of every channel track
// in the SMF, in track order, skipping the header (tempo/time-sig) track.
func decodeChannelTrack(t *testing.T, r *Result) []noteEvent {
	t.Helper()
	require.True(t, len(r.SMF.Tracks) >= 2, "expected a header track plus at least one channel track")

	var out []noteEvent
	for _, track := range r.SMF.Tracks[1:] {
		for _, ev := range track {
			var ch, key, vel uint8
			if ev.Message.GetNoteOn(&ch, &key, &vel) {
				out = append(out, noteEvent{delta: ev.Delta, on: true, key: key})
				continue
			}
			if ev.Message.GetNoteOff(&ch, &key, &vel) {
				out = append(out, noteEvent{delta: ev.Delta, on: false, key: key})
			}
		}
	}
	return out
}

func TestSchedulerSingleNote(t *testing.T) {
	r := buildResult(t, `
score {
	SetChannelTrack(0, Track { Phrase { Measure { Note(60) } } });
}
`)
	evs := decodeChannelTrack(t, r)
	require.Len(t, evs, 2)
	require.Equal(t, noteEvent{delta: 0, on: true, key: 60}, evs[0])
	require.Equal(t, noteEvent{delta: MeasureTicks / 4, on: false, key: 60}, evs[1])
}

func TestSchedulerChord(t *testing.T) {
	r := buildResult(t, `
score {
	SetChannelTrack(0, Track { Phrase { Measure { Note(60, 64, 67) } } });
}
`)
	evs := decodeChannelTrack(t, r)
	require.Len(t, evs, 6)
	require.True(t, evs[0].on && evs[0].delta == 0)
	require.True(t, evs[1].on && evs[1].delta == 0)
	require.True(t, evs[2].on && evs[2].delta == 0)

	var offTick uint32
	for _, e := range evs[3:] {
		require.False(t, e.on)
		offTick += e.delta
	}
	require.EqualValues(t, MeasureTicks/4, offTick)
}

func TestSchedulerLengthMultiplier(t *testing.T) {
	r := buildResult(t, `
score {
	SetChannelTrack(0, Track { Phrase { Measure { Note(60) len 3 } } });
}
`)
	evs := decodeChannelTrack(t, r)
	require.Len(t, evs, 2)
	require.Equal(t, noteEvent{delta: 0, on: true, key: 60}, evs[0])
	require.Equal(t, noteEvent{delta: 3 * (MeasureTicks / 4), on: false, key: 60}, evs[1])
}

func TestSchedulerDilateThenRestThenNote(t *testing.T) {
	r := buildResult(t, `
score {
	SetChannelTrack(0, Track { Phrase { Measure { < . Note(60) } } });
}
`)
	evs := decodeChannelTrack(t, r)
	require.Len(t, evs, 2)
	require.Equal(t, noteEvent{delta: MeasureTicks / 8, on: true, key: 60}, evs[0])
	require.Equal(t, noteEvent{delta: MeasureTicks / 8, on: false, key: 60}, evs[1])
}

func TestSchedulerHeaderFields(t *testing.T) {
	r := buildResult(t, `
score {
	SetTempo(140);
	SetTimeSignature(3, 8);
	SetChannelInstrument(2, 40);
	SetChannelTrack(2, Track { Phrase { Measure { Note(60) } } });
}
`)
	require.EqualValues(t, 140, r.Tempo)
	require.EqualValues(t, 3, r.TimeSigTop)
	require.EqualValues(t, 8, r.TimeSigBottom)
	require.EqualValues(t, 40, r.Instruments[2])
	require.EqualValues(t, 1, r.TrackAssignments[2])
}

func TestSchedulerCarriesAcrossRepeatedAssignments(t *testing.T) {
	r := buildResult(t, `
score {
	SetChannelTrack(0, Track { Phrase { Measure { Note(60) } } });
	SetChannelTrack(0, Track { Phrase { Measure { Note(62) } } });
}
`)
	evs := decodeChannelTrack(t, r)
	require.Len(t, evs, 4)
	// second assignment's note-on must be carried to start exactly where
	// the first assignment's sustained note ended, not restart at tick 0.
	require.Equal(t, noteEvent{delta: 0, on: true, key: 60}, evs[0])
	require.Equal(t, noteEvent{delta: MeasureTicks / 4, on: false, key: 60}, evs[1])
	require.Equal(t, noteEvent{delta: 0, on: true, key: 62}, evs[2])
	require.Equal(t, noteEvent{delta: MeasureTicks / 4, on: false, key: 62}, evs[3])
}
