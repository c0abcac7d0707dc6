// Package device defines the hardware collaborator interfaces the player
// calls: a Vibrator that executes abstract effect descriptors and an
// AudioSink that decodes and plays audio files. Concrete drivers live
// outside this repository; the static implementations here back headless
// rigs and tests. The package also carries a udev netlink monitor that
// reports actuator hotplug.
package device
