package cli

// Export internal functions for testing.

// RunConfigSet exports runConfigSet for testing.
var RunConfigSet = runConfigSet

// RunConfigGet exports runConfigGet for testing.
var RunConfigGet = runConfigGet

// RunConfigList exports runConfigList for testing.
var RunConfigList = runConfigList

// RunConfigUnset exports runConfigUnset for testing.
var RunConfigUnset = runConfigUnset

// ParseAssignments exports parseAssignments for testing.
var ParseAssignments = parseAssignments

// Slug exports slug for testing.
var Slug = slug

// SaveArtifact exports saveArtifact for testing.
var SaveArtifact = saveArtifact

// ResolveProvider exports resolveProvider for testing.
var ResolveProvider = resolveProvider

// DefaultKey exports defaultKey for testing.
var DefaultKey = defaultKey

// RetryReporter exports retryReporter for testing.
var RetryReporter = retryReporter
