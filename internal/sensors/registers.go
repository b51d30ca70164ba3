// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

// MPU-6050 register addresses used by the driver.
const (
	regSmplrtDiv   = 0x19
	regConfig      = 0x1A
	regGyroConfig  = 0x1B
	regAccelConfig = 0x1C
	regIntPinCfg   = 0x37
	regIntEnable   = 0x38
	regIntStatus   = 0x3A
	regAccelXoutH  = 0x3B
	regTempOutH    = 0x41
	regGyroXoutH   = 0x43
	regUserCtrl    = 0x6A
	regPwrMgmt1    = 0x6B
	regPwrMgmt2    = 0x6C
	regWhoAmI      = 0x75
)

// burstLen covers ACCEL_XOUT_H..GYRO_ZOUT_L: accel, temperature, gyro.
const burstLen = 14

// BitField describes one field inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo is the metadata served to the register debug page.
type RegisterInfo struct {
	Address     byte       `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R" or "RW"
	Default     byte       `json:"default"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// Writable reports whether the register may be written.
func (r RegisterInfo) Writable() bool { return r.Access == "RW" }

// RegisterMap returns the MPU-6050 registers relevant to attitude sampling.
func RegisterMap() []RegisterInfo {
	return []RegisterInfo{
		{Address: regSmplrtDiv, Name: "SMPLRT_DIV", Description: "Sample Rate Divider", Access: "RW",
			BitFields: []BitField{
				{Bits: "7:0", Name: "SMPLRT_DIV", Description: "Sample Rate = Gyro_Output_Rate / (1 + SMPLRT_DIV)", Values: "0-255"},
			}},
		{Address: regConfig, Name: "CONFIG", Description: "Configuration (DLPF)", Access: "RW",
			BitFields: []BitField{
				{Bits: "5:3", Name: "EXT_SYNC_SET", Description: "FSYNC pin sampling", Values: "0=Disabled"},
				{Bits: "2:0", Name: "DLPF_CFG", Description: "Digital Low Pass Filter (accel/gyro)", Values: "0=260/256Hz, 1=184/188Hz, 2=94/98Hz, 3=44/42Hz, 4=21/20Hz, 5=10/10Hz, 6=5/5Hz"},
			}},
		{Address: regGyroConfig, Name: "GYRO_CONFIG", Description: "Gyroscope Configuration", Access: "RW",
			BitFields: []BitField{
				{Bits: "7:5", Name: "XG_ST/YG_ST/ZG_ST", Description: "Gyro self-test", Values: "0=Disabled"},
				{Bits: "4:3", Name: "FS_SEL", Description: "Gyro Full Scale Range", Values: "0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s"},
			}},
		{Address: regAccelConfig, Name: "ACCEL_CONFIG", Description: "Accelerometer Configuration", Access: "RW",
			BitFields: []BitField{
				{Bits: "7:5", Name: "XA_ST/YA_ST/ZA_ST", Description: "Accel self-test", Values: "0=Disabled"},
				{Bits: "4:3", Name: "AFS_SEL", Description: "Accel Full Scale Range", Values: "0=±2g, 1=±4g, 2=±8g, 3=±16g"},
			}},
		{Address: regIntPinCfg, Name: "INT_PIN_CFG", Description: "INT Pin / Bypass Enable", Access: "RW",
			BitFields: []BitField{
				{Bits: "7", Name: "INT_LEVEL", Description: "INT pin active low", Values: "0=Active high, 1=Active low"},
				{Bits: "5", Name: "LATCH_INT_EN", Description: "Latch INT pin", Values: "0=50us pulse, 1=Latch"},
				{Bits: "1", Name: "I2C_BYPASS_EN", Description: "Auxiliary bus bypass", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: regIntEnable, Name: "INT_ENABLE", Description: "Interrupt Enable", Access: "RW",
			BitFields: []BitField{
				{Bits: "0", Name: "DATA_RDY_EN", Description: "Data ready interrupt", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: regIntStatus, Name: "INT_STATUS", Description: "Interrupt Status", Access: "R",
			BitFields: []BitField{
				{Bits: "0", Name: "DATA_RDY_INT", Description: "Data ready"},
			}},

		{Address: regAccelXoutH, Name: "ACCEL_XOUT_H", Description: "Accelerometer X High Byte", Access: "R"},
		{Address: regAccelXoutH + 1, Name: "ACCEL_XOUT_L", Description: "Accelerometer X Low Byte", Access: "R"},
		{Address: regAccelXoutH + 2, Name: "ACCEL_YOUT_H", Description: "Accelerometer Y High Byte", Access: "R"},
		{Address: regAccelXoutH + 3, Name: "ACCEL_YOUT_L", Description: "Accelerometer Y Low Byte", Access: "R"},
		{Address: regAccelXoutH + 4, Name: "ACCEL_ZOUT_H", Description: "Accelerometer Z High Byte", Access: "R"},
		{Address: regAccelXoutH + 5, Name: "ACCEL_ZOUT_L", Description: "Accelerometer Z Low Byte", Access: "R"},
		{Address: regTempOutH, Name: "TEMP_OUT_H", Description: "Temperature High Byte", Access: "R"},
		{Address: regTempOutH + 1, Name: "TEMP_OUT_L", Description: "Temperature Low Byte", Access: "R"},
		{Address: regGyroXoutH, Name: "GYRO_XOUT_H", Description: "Gyroscope X High Byte", Access: "R"},
		{Address: regGyroXoutH + 1, Name: "GYRO_XOUT_L", Description: "Gyroscope X Low Byte", Access: "R"},
		{Address: regGyroXoutH + 2, Name: "GYRO_YOUT_H", Description: "Gyroscope Y High Byte", Access: "R"},
		{Address: regGyroXoutH + 3, Name: "GYRO_YOUT_L", Description: "Gyroscope Y Low Byte", Access: "R"},
		{Address: regGyroXoutH + 4, Name: "GYRO_ZOUT_H", Description: "Gyroscope Z High Byte", Access: "R"},
		{Address: regGyroXoutH + 5, Name: "GYRO_ZOUT_L", Description: "Gyroscope Z Low Byte", Access: "R"},

		{Address: regUserCtrl, Name: "USER_CTRL", Description: "User Control", Access: "RW",
			BitFields: []BitField{
				{Bits: "6", Name: "FIFO_EN", Description: "Enable FIFO", Values: "0=Disabled, 1=Enabled"},
				{Bits: "0", Name: "SIG_COND_RESET", Description: "Reset signal paths", Values: "1=Reset"},
			}},
		{Address: regPwrMgmt1, Name: "PWR_MGMT_1", Description: "Power Management 1", Access: "RW", Default: 0x40,
			BitFields: []BitField{
				{Bits: "7", Name: "DEVICE_RESET", Description: "Device reset", Values: "1=Reset"},
				{Bits: "6", Name: "SLEEP", Description: "Sleep mode", Values: "0=Awake, 1=Sleep"},
				{Bits: "3", Name: "TEMP_DIS", Description: "Temperature sensor", Values: "0=Enabled, 1=Disabled"},
				{Bits: "2:0", Name: "CLKSEL", Description: "Clock source", Values: "0=Internal 8MHz, 1=PLL X gyro"},
			}},
		{Address: regPwrMgmt2, Name: "PWR_MGMT_2", Description: "Power Management 2", Access: "RW",
			BitFields: []BitField{
				{Bits: "5:3", Name: "STBY_XA/YA/ZA", Description: "Accelerometer standby", Values: "0=Active"},
				{Bits: "2:0", Name: "STBY_XG/YG/ZG", Description: "Gyro standby", Values: "0=Active"},
			}},
		{Address: regWhoAmI, Name: "WHO_AM_I", Description: "Device ID (0x68)", Access: "R", Default: 0x68},
	}
}

// LookupRegister returns the metadata for addr, if mapped.
func LookupRegister(addr byte) (RegisterInfo, bool) {
	for _, r := range RegisterMap() {
		if r.Address == addr {
			return r, true
		}
	}
	return RegisterInfo{}, false
}
