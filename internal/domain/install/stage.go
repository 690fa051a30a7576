package install

// Stage is one step of the install pipeline.
type Stage int

// Pipeline stages in execution order.
const (
	StageValidate Stage = iota + 1
	StageCollectAppConfig
	StageAuthenticate
	StageBuildEntry
	StageBundle
	StagePackage
	StageUpload
	StagePostConfigure
)

// String returns the stage name used in logs.
func (s Stage) String() string {
	switch s {
	case StageValidate:
		return "validate"
	case StageCollectAppConfig:
		return "collect-app-config"
	case StageAuthenticate:
		return "authenticate"
	case StageBuildEntry:
		return "build-entry"
	case StageBundle:
		return "bundle"
	case StagePackage:
		return "package"
	case StageUpload:
		return "upload"
	case StagePostConfigure:
		return "post-configure"
	default:
		return "unknown"
	}
}

// Kind returns the error kind a failure of the stage is reported as.
func (s Stage) Kind() Kind {
	switch s {
	case StageValidate, StageCollectAppConfig:
		return KindConfiguration
	case StageAuthenticate:
		return KindAuthentication
	case StageBuildEntry, StageBundle, StagePackage:
		return KindBuild
	case StageUpload:
		return KindTransport
	case StagePostConfigure:
		return KindPostConfigure
	default:
		return KindUnexpected
	}
}
