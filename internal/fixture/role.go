package fixture

// Role identifies one of the four fixed fixture files.
type Role int

const (
	RoleFrom Role = iota + 1
	RoleTo
	RoleSniffedInput
	RoleSniffedOutput
)

// Roles lists every role in provisioning order.
var Roles = []Role{RoleFrom, RoleTo, RoleSniffedInput, RoleSniffedOutput}

// BackupSuffix is appended to a sniff log when it is moved aside.
const BackupSuffix = ".backup"

var roleFiles = [...]string{
	RoleFrom:          "from.txt",
	RoleTo:            "to.txt",
	RoleSniffedInput:  "sniffed.input.log",
	RoleSniffedOutput: "sniffed.output.log",
}

var roleNames = [...]string{
	RoleFrom:          "from",
	RoleTo:            "to",
	RoleSniffedInput:  "sniffed-input",
	RoleSniffedOutput: "sniffed-output",
}

// FileName returns the fixed file name of the role inside the target
// directory.
func (r Role) FileName() string {
	if r > 0 && int(r) < len(roleFiles) {
		return roleFiles[r]
	}
	return ""
}

func (r Role) String() string {
	if r > 0 && int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "unknown"
}

// BackedUp reports whether an existing file for this role is preserved
// with BackupSuffix before being recreated. Only sniff logs carry session
// data worth keeping.
func (r Role) BackedUp() bool {
	return r == RoleSniffedInput || r == RoleSniffedOutput
}
