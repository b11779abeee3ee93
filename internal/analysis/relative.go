package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Relative is a relative error in percent. The zero value is a defined 0%.
type Relative struct {
	percent   float64
	undefined bool
}

// Undefined marks a relative error whose exact value is zero while the
// approximation is not.
var Undefined = Relative{undefined: true}

func Defined(percent float64) Relative {
	return Relative{percent: percent}
}

// RelativeError returns |exact-approx| / |exact| · 100 with the zero policy:
// 0/0 is 0 and nonzero/0 is Undefined.
func RelativeError(exact, approx float64) Relative {
	abs := math.Abs(exact - approx)
	if exact == 0 {
		if approx == 0 {
			return Defined(0)
		}
		return Undefined
	}
	return Defined(abs / math.Abs(exact) * 100)
}

// Percent returns the value and whether it is defined.
func (r Relative) Percent() (float64, bool) {
	if r.undefined {
		return 0, false
	}
	return r.percent, true
}

func (r Relative) IsUndefined() bool { return r.undefined }

func (r Relative) String() string {
	if r.undefined {
		return "undefined"
	}
	return strconv.FormatFloat(r.percent, 'f', 4, 64)
}

// MarshalJSON encodes Undefined as null. NaN and Inf have no JSON form and
// are rejected.
func (r Relative) MarshalJSON() ([]byte, error) {
	if r.undefined {
		return []byte("null"), nil
	}
	if math.IsNaN(r.percent) || math.IsInf(r.percent, 0) {
		return nil, fmt.Errorf("analysis: relative error %g has no JSON encoding", r.percent)
	}
	return json.Marshal(r.percent)
}

func (r *Relative) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Undefined
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Defined(v)
	return nil
}
