package fields

// Lead field names referenced from code.
const (
	FullName         = "fullName"
	Phone            = "phone"
	Email            = "email"
	City             = "city"
	Address          = "address"
	IDNumber         = "idNumber"
	Gender           = "gender"
	BirthDate        = "birthDate"
	GiyusDate        = "giyusDate"
	TzavRishonDate   = "tzavRishonDate"
	LastContactDate  = "lastContactDate"
	Status           = "status"
	MedicalProfile   = "medicalProfile"
	IsLoneSoldier    = "isLoneSoldier"
	HasMedicalIssues = "hasMedicalIssues"
	TzavRishonDone   = "tzavRishonCompleted"
	MentorName       = "mentorName"
	UnitPreference   = "unitPreference"
	DraftOffice      = "draftOffice"
	Source           = "source"
	Notes            = "notes"
)

// Lead status values.
const (
	StatusNew       = "new"
	StatusInProcess = "in_process"
	StatusPostponed = "postponed"
	StatusDrafted   = "drafted"
	StatusDropped   = "dropped"
)

func text(name string) Descriptor {
	return Descriptor{Name: name, Kind: KindText, Serialize: Text}
}

func boolean(name string) Descriptor {
	return Descriptor{Name: name, Kind: KindBool, Serialize: Bool}
}

func date(name string) Descriptor {
	return Descriptor{Name: name, Kind: KindDate, Serialize: Date}
}

func enum(name string, options ...string) Descriptor {
	return Descriptor{Name: name, Kind: KindEnum, Serialize: Enum(options...), Options: options}
}

// Leads is the registry of every lead field the service may change.
var Leads = MustNewRegistry(
	text(FullName),
	text(Phone),
	text(Email),
	text(City),
	text(Address),
	text(IDNumber),
	enum(Gender, "male", "female", "other"),
	date(BirthDate),
	date(GiyusDate),
	date(TzavRishonDate),
	date(LastContactDate),
	enum(Status, StatusNew, StatusInProcess, StatusPostponed, StatusDrafted, StatusDropped),
	enum(MedicalProfile, "21", "24", "45", "64", "72", "82", "97"),
	boolean(IsLoneSoldier),
	boolean(HasMedicalIssues),
	boolean(TzavRishonDone),
	text(MentorName),
	text(UnitPreference),
	text(DraftOffice),
	text(Source),
	text(Notes),
)
