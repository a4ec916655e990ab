// Package midi implements the §4.G score scheduler and the §6 MIDI writer
// collaborator, built directly on gitlab.com/gomidi/midi/v2 and its smf
// sub-package the way the teacher's midi/generator.go drives them.
package midi

import (
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/fuuzen/yam-go/internal/ast"
	"github.com/fuuzen/yam-go/internal/interp"
	"github.com/fuuzen/yam-go/internal/yamerr"
)

// Timing constants, §4.G.
const (
	PPQ             = 1024
	MeasureTicks    = 4 * PPQ
	DefaultVelocity = 72
)

type pendingOff struct {
	target int64
	pitch  uint8
}

// channelState is the per-channel bookkeeping carried between SetChannelTrack
// calls targeting the same channel, so repeated assignments concatenate
// seamlessly (§4.G).
type channelState struct {
	track *smf.Track
	carry int64 // delta ticks owed to the next event on this channel
}

// Scheduler converts a Score's evaluated Tracks into MIDI events.
type Scheduler struct {
	it       *interp.Interp
	denom    int64
	meta     smf.Track
	channels map[uint8]*channelState
	chOrder  []uint8

	Tempo            int32
	TimeSigTop       int32
	TimeSigBottom    int32
	Instruments      map[uint8]int32
	TrackAssignments map[uint8]int
}

// Result is everything the CLI needs after scheduling: the finished SMF plus
// the header values a compile report wants to display.
type Result struct {
	SMF *smf.SMF
	*Scheduler
}

// Build executes score.Body (ordinary statements) and then replays the score
// statements in appearance order, returning a complete Standard MIDI File
// with PPQ division 1024.
func Build(it *interp.Interp, score *ast.Score) (*Result, error) {
	sig, err := it.ExecBlock(score.Body)
	if err != nil {
		return nil, err
	}
	if sig.Kind != interp.Normal {
		return nil, yamerr.Internalf("score block exited with non-normal control signal")
	}

	s := &Scheduler{
		it:               it,
		denom:            4,
		channels:         make(map[uint8]*channelState),
		TimeSigBottom:    4,
		Instruments:      make(map[uint8]int32),
		TrackAssignments: make(map[uint8]int),
	}

	for _, ss := range score.Stmts {
		if err := s.apply(ss); err != nil {
			return nil, err
		}
	}

	out, err := s.finalize()
	if err != nil {
		return nil, err
	}
	return &Result{SMF: out, Scheduler: s}, nil
}

func (s *Scheduler) apply(ss ast.ScoreStmt) error {
	switch v := ss.(type) {
	case *ast.SetTempo:
		n, err := s.it.EvalInt(v.N)
		if err != nil {
			return err
		}
		if n < 0 || n > 255 {
			return yamerr.Runtimef(yamerr.BadTempo, "tempo %d out of range [0,255]", n)
		}
		s.Tempo = n
		s.meta.Add(0, smf.MetaTempo(float64(n)))
		return nil

	case *ast.SetTimeSignature:
		top, err := s.it.EvalInt(v.Numerator)
		if err != nil {
			return err
		}
		bottom, err := s.it.EvalInt(v.Denominator)
		if err != nil {
			return err
		}
		if !isPowerOfTwoDenominator(bottom) {
			return yamerr.Runtimef(yamerr.BadTimeSignature, "time signature denominator %d is not a power of two in [1,1024]", bottom)
		}
		s.denom = int64(bottom)
		s.TimeSigTop, s.TimeSigBottom = top, bottom
		s.meta.Add(0, smf.MetaTimeSig(uint8(top), uint8(bottom), 24, 8))
		return nil

	case *ast.SetChannelInstrument:
		ch, err := s.it.EvalInt(v.Channel)
		if err != nil {
			return err
		}
		instr, err := s.it.EvalInt(v.Instrument)
		if err != nil {
			return err
		}
		if ch < 0 || ch > 15 {
			return yamerr.Runtimef(yamerr.BadChannel, "channel %d out of range [0,15]", ch)
		}
		if instr < 0 || instr > 127 {
			return yamerr.Runtimef(yamerr.BadInstrument, "instrument %d out of range [0,127]", instr)
		}
		s.Instruments[uint8(ch)] = instr
		s.meta.Add(0, midi.ProgramChange(uint8(ch), uint8(instr)))
		return nil

	case *ast.SetChannelTrack:
		ch, err := s.it.EvalInt(v.Channel)
		if err != nil {
			return err
		}
		if ch < 0 || ch > 15 {
			return yamerr.Runtimef(yamerr.BadChannel, "channel %d out of range [0,15]", ch)
		}
		tv, err := s.it.ReduceTrackRHS(v.Track)
		if err != nil {
			return err
		}
		s.TrackAssignments[uint8(ch)]++
		return s.appendTrack(uint8(ch), tv)
	}
	return yamerr.Internalf("unknown score statement %T", ss)
}

func isPowerOfTwoDenominator(n int32) bool {
	if n <= 0 {
		return false
	}
	if n > 1024 {
		return false
	}
	return n&(n-1) == 0
}

func (s *Scheduler) stateFor(ch uint8) *channelState {
	cs, ok := s.channels[ch]
	if !ok {
		cs = &channelState{track: &smf.Track{}}
		s.channels[ch] = cs
		s.chOrder = append(s.chOrder, ch)
	}
	return cs
}

// appendTrack runs the track-to-events algorithm of §4.G for one
// SetChannelTrack assignment, appending onto the channel's accumulating
// track and carrying the end-of-track delta forward for the next
// assignment on the same channel.
func (s *Scheduler) appendTrack(ch uint8, tv *ast.TrackValue) error {
	cs := s.stateFor(ch)

	tickStep := MeasureTicks / s.denom
	var elapsed int64
	lastEmit := -cs.carry
	var pending []pendingOff

	emit := func(tick int64, msg midi.Message) {
		delta := tick - lastEmit
		if delta < 0 {
			delta = 0
		}
		cs.track.Add(uint32(delta), msg)
		lastEmit = tick
	}

	drainUpTo := func(limit int64) {
		sort.SliceStable(pending, func(i, j int) bool { return pending[i].target < pending[j].target })
		i := 0
		for i < len(pending) && pending[i].target <= limit {
			emit(pending[i].target, midi.NoteOffVelocity(ch, pending[i].pitch, DefaultVelocity))
			i++
		}
		pending = pending[i:]
	}

	for _, phrase := range tv.Phrases {
		for _, measure := range phrase.Measures {
			for _, unit := range measure.Units {
				switch unit.Kind {
				case ast.UnitDilate:
					tickStep /= 2
					if tickStep < 1 {
						tickStep = 1
					}
				case ast.UnitCompress:
					tickStep *= 2
				case ast.UnitRest:
					next := elapsed + tickStep
					drainUpTo(next)
					elapsed = next
				case ast.UnitNote:
					mult := int64(1)
					if unit.Note.Len != nil {
						mult = int64(*unit.Note.Len)
					}
					noteTicks := tickStep * mult
					for _, pitch := range unit.Note.Pitches {
						emit(elapsed, midi.NoteOn(ch, clampPitch(pitch), DefaultVelocity))
					}
					for _, pitch := range unit.Note.Pitches {
						pending = append(pending, pendingOff{target: elapsed + noteTicks, pitch: clampPitch(pitch)})
					}
					elapsed += tickStep
				}
			}
		}
	}

	// End of track: flush every still-sustaining note, ascending by target
	// tick, regardless of whether a later Rest would ever have drained it.
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].target < pending[j].target })
	for _, p := range pending {
		emit(p.target, midi.NoteOffVelocity(ch, p.pitch, DefaultVelocity))
	}
	pending = nil

	cs.carry = elapsed - lastEmit
	if cs.carry < 0 {
		cs.carry = 0
	}
	return nil
}

func clampPitch(p int32) uint8 {
	if p < 0 {
		p = 0
	}
	if p > 127 {
		p = 127
	}
	return uint8(p)
}

func (s *Scheduler) finalize() (*smf.SMF, error) {
	out := smf.New()
	out.TimeFormat = smf.MetricTicks(PPQ)

	s.meta.Close(0)
	out.Add(s.meta)

	for _, ch := range s.chOrder {
		cs := s.channels[ch]
		cs.track.Close(0)
		out.Add(*cs.track)
	}

	return &out, nil
}
