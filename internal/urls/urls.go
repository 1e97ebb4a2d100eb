package urls

// Documentation URLs for guides and troubleshooting
// All URLs point to the documentation site at https://muurk.github.io/signflow/

// StepTableFormat describes the YAML layout accepted by --steps,
// including boundary views and the self-looping last step.
const StepTableFormat = "https://muurk.github.io/signflow/reference/step-table/"

// HubSetup covers running signflow-hub, TLS certificates and
// mDNS advertisement.
const HubSetup = "https://muurk.github.io/signflow/hub/setup/"

// TroubleshootingGuide provides solutions to common issues with
// discovery, hub connections and draft validation.
const TroubleshootingGuide = "https://muurk.github.io/signflow/troubleshooting/"

// GettingStarted is the quick start guide for new users.
const GettingStarted = "https://muurk.github.io/signflow/getting-started/"
