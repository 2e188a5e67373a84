package neat

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownActivation is returned when an activation name has no matching function.
var ErrUnknownActivation = errors.New("unknown activation function")

// ActivationFunc is a resolved activation function.
type ActivationFunc func(x float64) float64

// Activation is the closed set of supported activation functions. The config
// names one by string; it is resolved to an Activation once and the network
// compiler stores the matching ActivationFunc.
type Activation int

const (
	ActivationSigmoid Activation = iota + 1
	ActivationTanh
	ActivationReLU
	ActivationLinear
	ActivationClamped
	ActivationGaussian
	ActivationAbsolute
	ActivationSine
	ActivationHat
)

var activationNames = map[string]Activation{
	"sigmoid":  ActivationSigmoid,
	"tanh":     ActivationTanh,
	"relu":     ActivationReLU,
	"linear":   ActivationLinear,
	"identity": ActivationLinear, // Alias for linear
	"clamped":  ActivationClamped,
	"gaussian": ActivationGaussian,
	"absolute": ActivationAbsolute,
	"abs":      ActivationAbsolute, // Alias for absolute
	"sine":     ActivationSine,
	"hat":      ActivationHat,
}

var activationFuncs = map[Activation]ActivationFunc{
	ActivationSigmoid:  Sigmoid,
	ActivationTanh:     Tanh,
	ActivationReLU:     ReLU,
	ActivationLinear:   Linear,
	ActivationClamped:  Clamped,
	ActivationGaussian: Gaussian,
	ActivationAbsolute: Absolute,
	ActivationSine:     Sine,
	ActivationHat:      Hat,
}

// ParseActivation resolves an activation name (case-insensitive).
func ParseActivation(name string) (Activation, error) {
	if a, ok := activationNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return a, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
}

// Func returns the function for a, or nil if a is not a known activation.
func (a Activation) Func() ActivationFunc {
	return activationFuncs[a]
}

func (a Activation) String() string {
	switch a {
	case ActivationSigmoid:
		return "sigmoid"
	case ActivationTanh:
		return "tanh"
	case ActivationReLU:
		return "relu"
	case ActivationLinear:
		return "linear"
	case ActivationClamped:
		return "clamped"
	case ActivationGaussian:
		return "gaussian"
	case ActivationAbsolute:
		return "absolute"
	case ActivationSine:
		return "sine"
	case ActivationHat:
		return "hat"
	}
	return fmt.Sprintf("Activation(%d)", int(a))
}

// --- Standard Activation Function Implementations ---

// Sigmoid is the logistic function 1 / (1 + e^-x).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// Tanh activation function.
func Tanh(x float64) float64 {
	return math.Tanh(x)
}

// ReLU (Rectified Linear Unit) activation function.
func ReLU(x float64) float64 {
	return math.Max(0, x)
}

// Linear returns its input unchanged.
func Linear(x float64) float64 {
	return x
}

// Clamped activation function (clamps output between -1 and 1).
func Clamped(x float64) float64 {
	return clamp(x, -1.0, 1.0)
}

// Gaussian activation function.
func Gaussian(x float64) float64 {
	return math.Exp(-x * x / 2.0)
}

// Absolute value activation function.
func Absolute(x float64) float64 {
	return math.Abs(x)
}

// Sine activation function.
func Sine(x float64) float64 {
	return math.Sin(x)
}

// Hat activation function (triangular pulse centered at 0).
func Hat(x float64) float64 {
	return math.Max(0.0, 1.0-math.Abs(x))
}
