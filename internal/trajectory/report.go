package trajectory

import (
	"fmt"
	"io"
	"math"

	"github.com/marker-data/trajectory.report/internal/units"
)

// WriteSummaryText renders a marker summary as a human-readable report.
// Speed statistics are converted to speedUnits for display; everything else
// stays in SI. Channels with no finite values are reported as n/a.
func WriteSummaryText(w io.Writer, s MarkerSummary, speedUnits string) {
	label := units.Label(speedUnits)

	fmt.Fprintf(w, "Marker %d:\n", s.MarkerID)
	fmt.Fprintf(w, "%s\n", dividerLine)

	fmt.Fprintf(w, "Time:\n")
	fmt.Fprintf(w, "  Duration: %s seconds\n", fnum(s.Duration, 2))
	fmt.Fprintf(w, "  Data points: %d\n", s.SampleCount)
	fmt.Fprintf(w, "  Sample rate: %s Hz\n", fnum(s.SampleRateHz, 1))

	fmt.Fprintf(w, "Position range:\n")
	fmt.Fprintf(w, "  X: [%s, %s] m (range: %s m)\n", fnum(s.PosX.Min, 4), fnum(s.PosX.Max, 4), fnum(s.PosX.Range, 4))
	fmt.Fprintf(w, "  Y: [%s, %s] m (range: %s m)\n", fnum(s.PosY.Min, 4), fnum(s.PosY.Max, 4), fnum(s.PosY.Range, 4))
	fmt.Fprintf(w, "  Z: [%s, %s] m (range: %s m)\n", fnum(s.PosZ.Min, 4), fnum(s.PosZ.Max, 4), fnum(s.PosZ.Range, 4))

	fmt.Fprintf(w, "Distance:\n")
	fmt.Fprintf(w, "  Total distance traveled: %s m\n", fnum(s.TotalDistance, 4))
	fmt.Fprintf(w, "  Average distance per step: %s m\n", fnum(s.MeanStepDistance, 6))

	fmt.Fprintf(w, "Speed:\n")
	fmt.Fprintf(w, "  Average: %s %s\n", fnum(units.ConvertSpeed(s.SpeedMean, speedUnits), 4), label)
	fmt.Fprintf(w, "  Maximum: %s %s\n", fnum(units.ConvertSpeed(s.SpeedMax, speedUnits), 4), label)
	fmt.Fprintf(w, "  Minimum: %s %s\n", fnum(units.ConvertSpeed(s.SpeedMin, speedUnits), 4), label)
	fmt.Fprintf(w, "  Std deviation: %s %s\n", fnum(units.ConvertSpeed(s.SpeedStd, speedUnits), 4), label)

	fmt.Fprintf(w, "Acceleration:\n")
	fmt.Fprintf(w, "  Average: %s m/s^2\n", fnum(s.AccelMean, 4))
	fmt.Fprintf(w, "  Maximum: %s m/s^2\n", fnum(s.AccelMax, 4))

	fmt.Fprintf(w, "Rotation range (degrees):\n")
	fmt.Fprintf(w, "  RX: [%s, %s] (range: %s)\n", fnum(s.RotXDeg.Min, 2), fnum(s.RotXDeg.Max, 2), fnum(s.RotXDeg.Range, 2))
	fmt.Fprintf(w, "  RY: [%s, %s] (range: %s)\n", fnum(s.RotYDeg.Min, 2), fnum(s.RotYDeg.Max, 2), fnum(s.RotYDeg.Range, 2))
	fmt.Fprintf(w, "  RZ: [%s, %s] (range: %s)\n", fnum(s.RotZDeg.Min, 2), fnum(s.RotZDeg.Max, 2), fnum(s.RotZDeg.Range, 2))

	fmt.Fprintf(w, "Angular speed:\n")
	fmt.Fprintf(w, "  Average: %s rad/s (%s deg/s)\n", fnum(s.AngularSpeedMeanRad, 4), fnum(s.AngularSpeedMeanDeg, 2))
	fmt.Fprintf(w, "  Maximum: %s rad/s (%s deg/s)\n", fnum(s.AngularSpeedMaxRad, 4), fnum(s.AngularSpeedMaxDeg, 2))
}

const dividerLine = "----------------------------------------------------------------------"

// fnum formats a float with the given precision, or "n/a" when non-finite.
func fnum(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, v)
}
