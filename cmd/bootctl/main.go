// Command bootctl inspects boot allocator layouts and replays allocation plans.
package main

func main() {
	execute()
}
