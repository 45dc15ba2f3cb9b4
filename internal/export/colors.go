package export

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"kitsusync/internal/config"
)

// palette is the front end's default person palette. The trailing grey marks
// unassigned states and is never handed out.
var palette = [][]float64{
	{0.8197601437568665, 0.7117544412612915, 0.5497459173202515, 1.0},
	{0.6462640762329102, 0.5692625641822815, 0.8191020488739014, 1.0},
	{0.5096713304519653, 0.7521656155586243, 0.5136501789093018, 1.0},
	{0.8272907137870789, 0.5883985161781311, 0.6541866064071655, 1.0},
	{0.5273313522338867, 0.6598359346389770, 0.7609495520591736, 1.0},
	{0.7392144799232483, 0.7697654366493225, 0.5531221032142639, 1.0},
	{0.7357943654060364, 0.5509396195411682, 0.7686146497726440, 1.0},
	{0.5617250204086304, 0.7625861167907715, 0.6736904978752136, 1.0},
	{0.8007439970970154, 0.6388462185859680, 0.5802854895591736, 1.0},
	{0.6019799709320068, 0.6073563694953918, 0.8074616789817810, 1.0},
	{0.5944148898124695, 0.7527848482131958, 0.5205842256546020, 1.0},
	{0.8126696348190308, 0.5513396859169006, 0.7106873989105225, 1.0},
	{0.5918391346931458, 0.7710464000701904, 0.7906153798103333, 1.0},
	{0.7648254632949829, 0.7191355228424072, 0.5285170674324036, 1.0},
	{0.6757139563560486, 0.5736276507377625, 0.7719092965126038, 1.0},
	{0.5477100014686584, 0.7845347523689270, 0.6005358695983887, 1.0},
	{0.7501454353332520, 0.5404607057571411, 0.5548738241195679, 1.0},
	{0.5506091117858887, 0.6321061849594116, 0.7766551971435547, 1.0},
	{0.7142684459686279, 0.7983494400978088, 0.5565086007118225, 1.0},
	{0.6019799709320068, 0.5404607057571411, 0.7686146497726440, 1.0},
	{0.5555555555555555, 0.5555555555555555, 0.5555555555555555, 1.0},
}

// assignable excludes the grey entry.
var assignable = palette[:len(palette)-1]

// colorAssigner hands out person colors for one export run.
type colorAssigner struct {
	mode string
	next int
}

func newColorAssigner(mode string) *colorAssigner {
	return &colorAssigner{mode: mode}
}

// colorFor returns the color for a person, or nil when colors are disabled.
func (a *colorAssigner) colorFor(personID string) []float64 {
	switch a.mode {
	case config.ColorsSequential:
		color := assignable[a.next%len(assignable)]
		a.next++
		return clone(color)
	case config.ColorsStable:
		h := fnv.New32a()
		_, _ = h.Write([]byte(personID))
		return clone(assignable[int(h.Sum32()%uint32(len(assignable)))])
	default:
		return nil
	}
}

func clone(color []float64) []float64 {
	return append([]float64(nil), color...)
}

// HexToRGBA converts "#rrggbb" into [r, g, b, 1.0] with channels in [0, 1].
func HexToRGBA(hex string) ([]float64, error) {
	value := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(value) < 6 {
		return nil, fmt.Errorf("color %q: expected #rrggbb", hex)
	}
	rgba := make([]float64, 0, 4)
	for i := 0; i < 6; i += 2 {
		channel, err := strconv.ParseUint(value[i:i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("color %q: %w", hex, err)
		}
		rgba = append(rgba, float64(channel)/255)
	}
	return append(rgba, 1.0), nil
}
