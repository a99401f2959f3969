// Package gpu detects NVIDIA devices so encoding and transcription can use them.
package gpu

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

const (
	// CodecNVENC is the NVIDIA hardware H.264 encoder
	CodecNVENC = "h264_nvenc"
	// CodecX264 is the software H.264 encoder
	CodecX264 = "libx264"
	// CodecAuto selects CodecNVENC when a device is present
	CodecAuto = "auto"
)

// Info describes the detected NVIDIA devices
type Info struct {
	Available     bool   `json:"available"`
	DeviceCount   int    `json:"device_count"`
	DeviceName    string `json:"device_name,omitempty"`
	DriverVersion string `json:"driver_version,omitempty"`
	CUDAVersion   string `json:"cuda_version,omitempty"`
}

// Detector finds NVIDIA GPUs via nvidia-smi, falling back to CUDA environment variables
type Detector struct {
	logger *zap.Logger
	output func(name string, args ...string) ([]byte, error)
	getenv func(string) string

	cached *Info
}

// NewDetector creates a Detector with a no-op logger
func NewDetector() *Detector {
	return NewDetectorWithLogger(zap.NewNop())
}

// NewDetectorWithLogger creates a Detector with a custom logger
func NewDetectorWithLogger(logger *zap.Logger) *Detector {
	return &Detector{
		logger: logger,
		output: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).Output()
		},
		getenv: os.Getenv,
	}
}

// Detect returns the GPU information, probing once and caching the result
func (d *Detector) Detect() Info {
	if d.cached != nil {
		return *d.cached
	}

	info := Info{}
	if err := d.detectWithNvidiaSMI(&info); err != nil {
		d.logger.Debug("nvidia-smi detection failed", zap.Error(err))
		info = Info{}
		if err := d.detectWithCUDAEnv(&info); err != nil {
			d.logger.Debug("CUDA environment detection failed", zap.Error(err))
			info = Info{}
		}
	}

	d.logger.Info("GPU detection completed",
		zap.Bool("available", info.Available),
		zap.Int("device_count", info.DeviceCount),
		zap.String("device_name", info.DeviceName))
	d.cached = &info
	return info
}

func (d *Detector) detectWithNvidiaSMI(info *Info) error {
	out, err := d.output("nvidia-smi", "--query-gpu=name,driver_version", "--format=csv,noheader,nounits")
	if err != nil {
		return fmt.Errorf("nvidia-smi command failed: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return fmt.Errorf("no GPUs found by nvidia-smi")
	}

	parts := strings.Split(lines[0], ",")
	if len(parts) < 2 {
		return fmt.Errorf("unexpected nvidia-smi format: %s", lines[0])
	}

	info.DeviceCount = len(lines)
	info.DeviceName = strings.TrimSpace(parts[0])
	info.DriverVersion = strings.TrimSpace(parts[1])
	info.CUDAVersion = d.getenv("CUDA_VERSION")
	info.Available = true
	return nil
}

func (d *Detector) detectWithCUDAEnv(info *Info) error {
	visible := d.getenv("CUDA_VISIBLE_DEVICES")
	if visible == "" {
		return fmt.Errorf("CUDA_VISIBLE_DEVICES not set")
	}
	info.CUDAVersion = d.getenv("CUDA_VERSION")
	if visible == "-1" || strings.EqualFold(visible, "none") {
		return nil
	}
	info.DeviceCount = len(strings.Split(visible, ","))
	info.Available = info.DeviceCount > 0
	return nil
}

// VideoCodec resolves the configured codec; "auto" or empty picks NVENC when a GPU is present
func (d *Detector) VideoCodec(configured string) string {
	if configured != "" && !strings.EqualFold(configured, CodecAuto) {
		return configured
	}
	if d.Detect().Available {
		return CodecNVENC
	}
	return CodecX264
}
