package account

// ABI lists every entry point of the account. The bytes-message form of
// isValidSignature comes first so go-ethereum names it "isValidSignature"
// and the bytes32 form "isValidSignature0".
const ABI = `[
	{"type":"function","name":"setup","stateMutability":"nonpayable",
	 "inputs":[{"name":"_owners","type":"address[]"},{"name":"_threshold","type":"uint256"}],"outputs":[]},

	{"type":"function","name":"getOwners","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"address[]"}]},
	{"type":"function","name":"getThreshold","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"isOwner","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"addOwnerWithThreshold","stateMutability":"nonpayable",
	 "inputs":[{"name":"owner","type":"address"},{"name":"_threshold","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"removeOwner","stateMutability":"nonpayable",
	 "inputs":[{"name":"prevOwner","type":"address"},{"name":"owner","type":"address"},{"name":"_threshold","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"changeThreshold","stateMutability":"nonpayable",
	 "inputs":[{"name":"_threshold","type":"uint256"}],"outputs":[]},

	{"type":"function","name":"enableModule","stateMutability":"nonpayable",
	 "inputs":[{"name":"module","type":"address"}],"outputs":[]},
	{"type":"function","name":"disableModule","stateMutability":"nonpayable",
	 "inputs":[{"name":"prevModule","type":"address"},{"name":"module","type":"address"}],"outputs":[]},
	{"type":"function","name":"isModuleEnabled","stateMutability":"view",
	 "inputs":[{"name":"module","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"getModules","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"address[]"}]},

	{"type":"function","name":"nonce","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"domainSeparator","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"getChainId","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approveHash","stateMutability":"nonpayable",
	 "inputs":[{"name":"hashToApprove","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"approvedHashes","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"hash","type":"bytes32"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"signedMessages","stateMutability":"view",
	 "inputs":[{"name":"hash","type":"bytes32"}],"outputs":[{"name":"","type":"uint256"}]},

	{"type":"function","name":"getTransactionHash","stateMutability":"view",
	 "inputs":[
		{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"},
		{"name":"operation","type":"uint8"},{"name":"safeTxGas","type":"uint256"},{"name":"baseGas","type":"uint256"},
		{"name":"gasPrice","type":"uint256"},{"name":"gasToken","type":"address"},{"name":"refundReceiver","type":"address"},
		{"name":"_nonce","type":"uint256"}],
	 "outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"encodeTransactionData","stateMutability":"view",
	 "inputs":[
		{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"},
		{"name":"operation","type":"uint8"},{"name":"safeTxGas","type":"uint256"},{"name":"baseGas","type":"uint256"},
		{"name":"gasPrice","type":"uint256"},{"name":"gasToken","type":"address"},{"name":"refundReceiver","type":"address"},
		{"name":"_nonce","type":"uint256"}],
	 "outputs":[{"name":"","type":"bytes"}]},
	{"type":"function","name":"execTransaction","stateMutability":"payable",
	 "inputs":[
		{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"},
		{"name":"operation","type":"uint8"},{"name":"safeTxGas","type":"uint256"},{"name":"baseGas","type":"uint256"},
		{"name":"gasPrice","type":"uint256"},{"name":"gasToken","type":"address"},{"name":"refundReceiver","type":"address"},
		{"name":"signatures","type":"bytes"}],
	 "outputs":[{"name":"success","type":"bool"}]},

	{"type":"function","name":"checkSignatures","stateMutability":"view",
	 "inputs":[{"name":"dataHash","type":"bytes32"},{"name":"data","type":"bytes"},{"name":"signatures","type":"bytes"}],
	 "outputs":[]},
	{"type":"function","name":"checkNSignatures","stateMutability":"view",
	 "inputs":[{"name":"dataHash","type":"bytes32"},{"name":"data","type":"bytes"},{"name":"signatures","type":"bytes"},
		{"name":"requiredSignatures","type":"uint256"}],
	 "outputs":[]},

	{"type":"function","name":"getMessageHash","stateMutability":"view",
	 "inputs":[{"name":"message","type":"bytes"}],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"signMessage","stateMutability":"nonpayable",
	 "inputs":[{"name":"_data","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"isValidSignature","stateMutability":"view",
	 "inputs":[{"name":"_data","type":"bytes"},{"name":"_signature","type":"bytes"}],
	 "outputs":[{"name":"","type":"bytes4"}]},
	{"type":"function","name":"isValidSignature","stateMutability":"view",
	 "inputs":[{"name":"_dataHash","type":"bytes32"},{"name":"_signature","type":"bytes"}],
	 "outputs":[{"name":"","type":"bytes4"}]},

	{"type":"function","name":"onERC721Received","stateMutability":"pure",
	 "inputs":[{"name":"","type":"address"},{"name":"","type":"address"},{"name":"","type":"uint256"},{"name":"","type":"bytes"}],
	 "outputs":[{"name":"","type":"bytes4"}]},
	{"type":"function","name":"onERC1155Received","stateMutability":"pure",
	 "inputs":[{"name":"","type":"address"},{"name":"","type":"address"},{"name":"","type":"uint256"},{"name":"","type":"uint256"},{"name":"","type":"bytes"}],
	 "outputs":[{"name":"","type":"bytes4"}]},
	{"type":"function","name":"onERC1155BatchReceived","stateMutability":"pure",
	 "inputs":[{"name":"","type":"address"},{"name":"","type":"address"},{"name":"","type":"uint256[]"},{"name":"","type":"uint256[]"},{"name":"","type":"bytes"}],
	 "outputs":[{"name":"","type":"bytes4"}]},
	{"type":"function","name":"tokensReceived","stateMutability":"pure",
	 "inputs":[{"name":"","type":"address"},{"name":"","type":"address"},{"name":"","type":"address"},{"name":"","type":"uint256"},{"name":"","type":"bytes"},{"name":"","type":"bytes"}],
	 "outputs":[]},

	{"type":"function","name":"simulate","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"},{"name":"operation","type":"uint8"}],
	 "outputs":[{"name":"success","type":"bool"},{"name":"gasUsed","type":"uint256"},{"name":"returnData","type":"bytes"}]},
	{"type":"function","name":"simulateAndRevert","stateMutability":"nonpayable",
	 "inputs":[{"name":"targetContract","type":"address"},{"name":"calldataPayload","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"getStorageAt","stateMutability":"view",
	 "inputs":[{"name":"offset","type":"uint256"},{"name":"length","type":"uint256"}],
	 "outputs":[{"name":"","type":"bytes"}]}
]`
