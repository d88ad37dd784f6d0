package ports

// Display is the status screen collaborator. The core only reports state
// through it and never relies on its timing.
type Display interface {
	// ShowLines renders up to three centered lines, clearing the screen first.
	ShowLines(title, line1, line2 string)
	// MarkActivity resets the display's idle/screensaver timer.
	MarkActivity()
}

// Actuator drives the solenoid latch. Engage energizes the coil, Release
// cuts it. The core owns the timing; the driver owns polarity and pins.
type Actuator interface {
	Engage()
	Release()
}

// LightStrip is the addressable LED strip collaborator. Buffer writes take
// effect on Show; Off clears the buffer and writes immediately.
type LightStrip interface {
	Len() int
	SetPixel(index, r, g, b int)
	Fill(r, g, b int)
	Show()
	Off()
	SetBrightness(level float64)
}

// CredentialReader is the RFID front end. RequestPresent reports whether a
// tag is in the field; ReadIdentifier performs the anticollision exchange
// and returns the UID as uppercase hex.
type CredentialReader interface {
	RequestPresent() bool
	ReadIdentifier() (string, error)
}

// ContactSensor reads the drawer reed switch. True means the contact is
// closed (drawer shut).
type ContactSensor interface {
	Read() bool
}
