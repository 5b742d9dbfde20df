// Package node composes a publisher and a receiver into the smallest unit
// a cluster communicates with.
//
// A node cascades lifecycle calls to its facilities and namespaces its
// traffic: everything it publishes carries its name as origin and as the
// topic's final path element. Applications embed a Node and either drive
// Publish/Recv directly or install their own loop via WithLoop.
package node
