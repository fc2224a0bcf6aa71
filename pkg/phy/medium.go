package phy

import (
	"sort"
	"sync"
)

// Bus is the view of the wire used by a device.
type Bus interface {
	// SetVoltage records the voltage asserted by device.
	SetVoltage(device string, voltage float64)
	// Voltage reads the aggregate voltage on the wire.
	Voltage(device string) float64
}

// Detacher is implemented by a Bus supporting device removal.
type Detacher interface {
	Detach(device string)
}

// Medium is a wire which adds together all voltages currently asserted
// by the attached devices.
type Medium struct {
	contributions map[string]float64
	voltage       float64
	lock          sync.RWMutex
}

// NewMedium creates an idle Medium.
func NewMedium() *Medium {
	return &Medium{contributions: make(map[string]float64)}
}

// SetVoltage implements Bus.
func (m *Medium) SetVoltage(device string, voltage float64) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.contributions == nil {
		m.contributions = make(map[string]float64)
	}
	m.contributions[device] = voltage
	m.updateLocked()
}

// Voltage implements Bus. The result is the same for every device.
func (m *Medium) Voltage(device string) float64 {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.voltage
}

// Detach implements Detacher.
func (m *Medium) Detach(device string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.contributions[device]; ok {
		delete(m.contributions, device)
		m.updateLocked()
	}
}

// Contributions returns a copy of the voltages asserted per device.
func (m *Medium) Contributions() map[string]float64 {
	_, contributions := m.Snapshot()
	return contributions
}

// Snapshot returns the aggregate voltage together with the contributions
// it was computed from.
func (m *Medium) Snapshot() (float64, map[string]float64) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	contributions := make(map[string]float64, len(m.contributions))
	for device, voltage := range m.contributions {
		contributions[device] = voltage
	}
	return m.voltage, contributions
}

// Devices lists the attached devices in name order.
func (m *Medium) Devices() []string {
	m.lock.RLock()
	devices := make([]string, 0, len(m.contributions))
	for device := range m.contributions {
		devices = append(devices, device)
	}
	m.lock.RUnlock()
	sort.Strings(devices)
	return devices
}

// updateLocked sums in name order so the aggregate is reproducible.
func (m *Medium) updateLocked() {
	devices := make([]string, 0, len(m.contributions))
	for device := range m.contributions {
		devices = append(devices, device)
	}
	sort.Strings(devices)
	var voltage float64
	for _, device := range devices {
		voltage += m.contributions[device]
	}
	m.voltage = voltage
}
